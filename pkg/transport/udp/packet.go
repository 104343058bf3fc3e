// Package udp provides the UDP transports: a bounded-wait datagram receiver
// for packet protocols and reliable KCP sessions for stream protocols.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/format"
	"dominicbreuker/netdemo/pkg/log"
	"dominicbreuker/netdemo/pkg/transport"
)

// errorBackoff spaces out retries after unexpected receive errors.
const errorBackoff = 50 * time.Millisecond

// PacketHandler is called for every received datagram.
// The payload is only valid for the duration of the call.
type PacketHandler func(payload []byte, from net.Addr)

// PacketOptions tune a PacketListener.
type PacketOptions struct {
	// BufferSize is the largest datagram accepted. Longer ones are dropped.
	BufferSize int

	// PollInterval bounds each read so that cancellation is noticed promptly.
	PollInterval time.Duration

	// RecvBuffer sets SO_RCVBUF on real sockets if positive.
	RecvBuffer int

	// OnError is called for every receive error that does not end Serve.
	OnError func(error)

	// OnTruncated is called for every datagram dropped for exceeding BufferSize.
	OnTruncated func(from net.Addr)
}

// PacketListener receives datagrams on a UDP socket.
type PacketListener struct {
	pc     net.PacketConn
	opts   PacketOptions
	logger *log.Logger
}

// NewPacketListener binds a UDP socket on addr.
// The deps parameter is optional and can be nil to use default implementations.
// Bind failures are returned as *transport.BindError.
func NewPacketListener(addr string, opts PacketOptions, logger *log.Logger, deps *config.Dependencies) (*PacketListener, error) {
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		return nil, transport.NewBindError("udp", addr, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err))
	}

	listenFn := config.GetPacketListenerFunc(deps)
	if listenFn == nil {
		listenFn = func(network, address string) (net.PacketConn, error) {
			return listenPacket(network, address, opts.RecvBuffer)
		}
	}

	pc, err := listenFn("udp", addr)
	if err != nil {
		return nil, transport.NewBindError("udp", addr, err)
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 65535
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}

	return &PacketListener{
		pc:     pc,
		opts:   opts,
		logger: logger,
	}, nil
}

// listenPacket opens a real UDP socket, optionally with an enlarged receive buffer.
func listenPacket(network, address string, recvBuffer int) (net.PacketConn, error) {
	lc := net.ListenConfig{}
	if recvBuffer > 0 {
		lc.Control = func(_, _ string, c syscall.RawConn) error {
			var serr error
			if err := c.Control(func(fd uintptr) {
				serr = setSockoptRecvBuffer(fd, recvBuffer)
			}); err != nil {
				return err
			}
			return serr
		}
	}

	return lc.ListenPacket(context.Background(), network, address)
}

// Serve reads datagrams and passes them to handle until ctx is cancelled or
// the listener is closed. Receive errors other than timeouts are logged and
// do not stop the loop. Datagrams longer than BufferSize are logged and
// dropped.
func (l *PacketListener) Serve(ctx context.Context, handle PacketHandler) error {
	// one spare byte tells a full datagram from a cut one
	buf := make([]byte, l.opts.BufferSize+1)

	for {
		if ctx.Err() != nil {
			return nil
		}

		_ = l.pc.SetReadDeadline(time.Now().Add(l.opts.PollInterval))
		n, from, err := l.pc.ReadFrom(buf)
		switch {
		case n > l.opts.BufferSize:
			l.logger.ErrorMsg("Dropping datagram from %s: longer than %d bytes\n", format.Host(from), l.opts.BufferSize)
			if l.opts.OnTruncated != nil {
				l.opts.OnTruncated(from)
			}
		case n > 0:
			handle(buf[:n], from)
		}
		if err == nil {
			continue
		}

		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			continue
		}
		if ctx.Err() != nil || transport.IsClosed(err) {
			return nil
		}

		l.logger.ErrorMsg("Receiving datagram: %s\n", err)
		if l.opts.OnError != nil {
			l.opts.OnError(err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(errorBackoff):
		}
	}
}

// Addr returns the bound address.
func (l *PacketListener) Addr() net.Addr {
	return l.pc.LocalAddr()
}

// Close closes the socket, unblocking Serve.
func (l *PacketListener) Close() error {
	return l.pc.Close()
}

// Send writes a single datagram to addr.
func Send(ctx context.Context, addr string, payload []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("dial(udp, %s): %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write(udp, %s): %w", addr, err)
	}

	return nil
}
