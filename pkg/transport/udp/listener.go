package udp

import (
	"fmt"
	"net"

	"dominicbreuker/netdemo/pkg/transport"

	kcp "github.com/xtaci/kcp-go/v5"
)

// Listener accepts reliable KCP sessions over a single UDP socket.
// Every session is returned as a net.Conn in stream mode.
type Listener struct {
	kcpListener *kcp.Listener
	conn        net.PacketConn // not owned by kcpListener
}

// NewListener creates a new KCP listener on the specified address.
// Bind failures are returned as *transport.BindError.
func NewListener(addr string) (*Listener, error) {
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		return nil, transport.NewBindError("udp", addr, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err))
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, transport.NewBindError("udp", addr, err)
	}

	// Parameters: block cipher (nil for no encryption), dataShards (0), parityShards (0), conn
	kcpListener, err := kcp.ServeConn(nil, 0, 0, conn)
	if err != nil {
		conn.Close()
		return nil, transport.NewBindError("udp", addr, fmt.Errorf("kcp.ServeConn(): %w", err))
	}

	return &Listener{kcpListener: kcpListener, conn: conn}, nil
}

// Accept waits for the next KCP session.
func (l *Listener) Accept() (net.Conn, error) {
	kcpConn, err := l.kcpListener.AcceptKCP()
	if err != nil {
		return nil, fmt.Errorf("AcceptKCP(): %w", err)
	}

	configureSession(kcpConn)
	return kcpConn, nil
}

// Close stops the listener and releases the UDP socket.
// Sessions already accepted stay open until closed individually.
func (l *Listener) Close() error {
	err := l.kcpListener.Close()
	if cerr := l.conn.Close(); cerr != nil && err == nil && !transport.IsClosed(cerr) {
		err = cerr
	}
	return err
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.kcpListener.Addr()
}

// Dial opens a KCP session to addr. It is used by clients and tests.
func Dial(addr string) (net.Conn, error) {
	kcpConn, err := kcp.DialWithOptions(addr, nil, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("kcp.DialWithOptions(%s): %w", addr, err)
	}

	configureSession(kcpConn)
	return kcpConn, nil
}

// configureSession tunes a session for interactive traffic.
// SetNoDelay(nodelay, interval, resend, nc)
// nodelay: 0=disable, 1=enable
// interval: internal update interval in ms
// resend: 0=disable fast resend, 1=enable fast resend, 2=2 ACK crosses trigger fast resend
// nc: 0=normal congestion control, 1=disable congestion control
func configureSession(c *kcp.UDPSession) {
	c.SetNoDelay(1, 10, 2, 1)
	c.SetStreamMode(true)
	c.SetWindowSize(1024, 1024)
}

var _ net.Listener = (*Listener)(nil)
