package mocks

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// MockUDPNetwork simulates a UDP network for testing without real network connections.
// Packets are delivered through in-memory channels.
type MockUDPNetwork struct {
	listeners    map[string]*mockUDPListener
	mu           sync.Mutex
	listenerCond *sync.Cond // signals listener changes
}

// NewMockUDPNetwork creates a new mock UDP network.
func NewMockUDPNetwork() *MockUDPNetwork {
	m := &MockUDPNetwork{
		listeners: make(map[string]*mockUDPListener),
	}
	m.listenerCond = sync.NewCond(&m.mu)
	return m
}

// ListenUDP creates a mock UDP socket on the specified address.
func (m *MockUDPNetwork) ListenUDP(network string, laddr *net.UDPAddr) (net.PacketConn, error) {
	if network != "udp" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	addr := laddr.String()
	if _, exists := m.listeners[addr]; exists {
		return nil, fmt.Errorf("address already in use: %s", addr)
	}

	listener := &mockUDPListener{
		addr:    laddr,
		packets: make(chan *mockUDPPacket, 100),
		closeCh: make(chan struct{}),
		network: m,
	}
	m.listeners[addr] = listener
	m.listenerCond.Broadcast()

	return listener, nil
}

// ListenPacket matches config.PacketListenerFunc.
func (m *MockUDPNetwork) ListenPacket(network, address string) (net.PacketConn, error) {
	if network != "udp" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	laddr, err := net.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, err
	}

	return m.ListenUDP(network, laddr)
}

// WriteTo delivers one datagram from srcAddr to the socket bound on dstAddr.
func (m *MockUDPNetwork) WriteTo(data []byte, srcAddr *net.UDPAddr, dstAddr *net.UDPAddr) (int, error) {
	m.mu.Lock()
	listener, exists := m.listeners[dstAddr.String()]
	m.mu.Unlock()

	if !exists {
		return 0, fmt.Errorf("no listener on %s", dstAddr.String())
	}

	packet := &mockUDPPacket{
		data: make([]byte, len(data)),
		addr: srcAddr,
	}
	copy(packet.data, data)

	select {
	case listener.packets <- packet:
		return len(data), nil
	case <-listener.closeCh:
		return 0, fmt.Errorf("listener closed")
	case <-time.After(1 * time.Second):
		return 0, fmt.Errorf("write timeout")
	}
}

// WaitForListener waits up to timeoutMs milliseconds for a socket on addr.
func (m *MockUDPNetwork) WaitForListener(addr string, timeoutMs int) error {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if _, exists := m.listeners[addr]; exists {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for UDP listener on %s", addr)
		}

		go func() {
			time.Sleep(50 * time.Millisecond)
			m.listenerCond.Broadcast()
		}()
		m.listenerCond.Wait()
	}
}

type mockUDPPacket struct {
	data []byte
	addr *net.UDPAddr
}

// timeoutError is returned by reads that hit their deadline.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

type mockUDPListener struct {
	addr         *net.UDPAddr
	packets      chan *mockUDPPacket
	closeCh      chan struct{}
	closed       bool
	readDeadline time.Time
	mu           sync.Mutex
	network      *MockUDPNetwork
}

// ReadFrom blocks until a packet arrives, the socket is closed, or the read deadline passes.
func (l *mockUDPListener) ReadFrom(p []byte) (n int, addr net.Addr, err error) {
	l.mu.Lock()
	deadline := l.readDeadline
	l.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return 0, nil, timeoutError{}
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case packet := <-l.packets:
		n = copy(p, packet.data)
		return n, packet.addr, nil
	case <-l.closeCh:
		return 0, nil, fmt.Errorf("read udp %s: %w", l.addr, net.ErrClosed)
	case <-timeout:
		return 0, nil, timeoutError{}
	}
}

// WriteTo delivers p to the mock socket bound on addr, silently dropping it if there is none.
func (l *mockUDPListener) WriteTo(p []byte, addr net.Addr) (n int, err error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, fmt.Errorf("write udp %s: %w", l.addr, net.ErrClosed)
	}
	l.mu.Unlock()

	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return 0, fmt.Errorf("address must be *net.UDPAddr")
	}

	l.network.mu.Lock()
	destListener, exists := l.network.listeners[udpAddr.String()]
	l.network.mu.Unlock()

	if !exists {
		return len(p), nil
	}

	packet := &mockUDPPacket{
		data: make([]byte, len(p)),
		addr: l.addr,
	}
	copy(packet.data, p)

	select {
	case destListener.packets <- packet:
	case <-destListener.closeCh:
	case <-time.After(100 * time.Millisecond):
	}
	return len(p), nil
}

func (l *mockUDPListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.closeCh)

	l.network.mu.Lock()
	delete(l.network.listeners, l.addr.String())
	l.network.mu.Unlock()

	return nil
}

func (l *mockUDPListener) LocalAddr() net.Addr {
	return l.addr
}

func (l *mockUDPListener) SetDeadline(t time.Time) error {
	return l.SetReadDeadline(t)
}

func (l *mockUDPListener) SetReadDeadline(t time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readDeadline = t
	return nil
}

func (l *mockUDPListener) SetWriteDeadline(t time.Time) error {
	return nil
}

var _ net.PacketConn = (*mockUDPListener)(nil)
