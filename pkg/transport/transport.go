// Package transport provides network transport implementations for netdemo.
// Each stream transport (tcp, ws, udp) returns a net.Listener whose Accept
// yields ready-to-use connections:
//
//   - tcp: plain TCP sockets
//   - ws: WebSocket connections over HTTP (ws) or HTTPS (wss) wrapped as net.Conn
//   - udp: reliable KCP sessions over a single UDP socket
//
// The udp package additionally provides a PacketListener for raw datagram
// protocols such as syslog. Its receive loop waits at most one poll interval
// per read so that cancellation is observed promptly.
//
// Failing to bind a socket is reported as *BindError. It is the only failure
// that callers treat as fatal; everything scoped to a single connection or
// datagram is handled and logged by the caller.
package transport

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// BindError reports that a listening socket could not be created.
type BindError struct {
	Network string
	Addr    string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("binding %s %s: %s", e.Network, e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// NewBindError ...
func NewBindError(network, addr string, err error) *BindError {
	return &BindError{Network: network, Addr: addr, Err: err}
}

// IsClosed recognizes errors returned by operations on a closed listener or connection.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	// kcp and in-memory listeners do not wrap net.ErrClosed
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "listener closed") ||
		strings.Contains(msg, "io: read/write on closed pipe")
}
