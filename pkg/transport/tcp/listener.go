// Package tcp provides the plain TCP stream transport.
package tcp

import (
	"fmt"
	"net"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/transport"
)

// NewListener binds a TCP listener on addr.
// The deps parameter is optional and can be nil to use default implementations.
// Bind failures are returned as *transport.BindError.
func NewListener(addr string, deps *config.Dependencies) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, transport.NewBindError("tcp", addr, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err))
	}

	listenFn := config.GetTCPListenerFunc(deps)
	nl, err := listenFn("tcp", tcpAddr)
	if err != nil {
		return nil, transport.NewBindError("tcp", addr, err)
	}

	return nl, nil
}
