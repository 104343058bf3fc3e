// Package ws provides the WebSocket stream transport. Every upgraded
// request is turned into a binary net.Conn and handed out through Accept,
// so the echo server treats ws and wss exactly like plain TCP.
package ws

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/crypto"
	"dominicbreuker/netdemo/pkg/log"
	"dominicbreuker/netdemo/pkg/transport/tcp"

	"github.com/coder/websocket"
)

// Subprotocol is negotiated with clients that offer it.
const Subprotocol = "bin"

// Listener is a net.Listener yielding WebSocket connections.
type Listener struct {
	nl     net.Listener
	srv    *http.Server
	conns  chan net.Conn
	logger *log.Logger

	// ctx bounds every connection handed out; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	done      chan struct{}
}

// NewListener binds addr and serves WebSocket upgrades on it, over HTTPS with
// an ephemeral certificate if useTLS is set. Bind failures are returned as
// *transport.BindError. The listener stops when ctx ends or Close is called.
func NewListener(ctx context.Context, addr string, useTLS bool, logger *log.Logger, deps *config.Dependencies) (*Listener, error) {
	nl, err := tcp.NewListener(addr, deps)
	if err != nil {
		return nil, err
	}

	if useTLS {
		nl, err = wrapWithTLS(nl)
		if err != nil {
			return nil, fmt.Errorf("wrap with TLS: %w", err)
		}
	}

	lctx, cancel := context.WithCancel(ctx)
	l := &Listener{
		nl:     nl,
		conns:  make(chan net.Conn),
		logger: logger,
		ctx:    lctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	l.srv = &http.Server{
		Handler:           http.HandlerFunc(l.upgrade),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return lctx },
	}

	go l.serve()
	go func() {
		select {
		case <-lctx.Done():
			l.Close()
		case <-l.done:
		}
	}()

	return l, nil
}

// wrapWithTLS wraps a listener with TLS using an ephemeral certificate.
func wrapWithTLS(nl net.Listener) (net.Listener, error) {
	_, cert, err := crypto.GenerateCertificates("")
	if err != nil {
		nl.Close()
		return nil, fmt.Errorf("crypto.GenerateCertificates(): %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}

	return tls.NewListener(nl, tlsCfg), nil
}

func (l *Listener) serve() {
	err := l.srv.Serve(l.nl)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.logger.ErrorMsg("http.Server.Serve(): %s\n", err)
	}
}

// upgrade accepts the WebSocket handshake and queues the connection for Accept.
func (l *Listener) upgrade(w http.ResponseWriter, r *http.Request) {
	select {
	case <-l.done:
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	default:
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:       []string{Subprotocol},
		InsecureSkipVerify: true, // any origin may talk to the echo server
	})
	if err != nil {
		l.logger.ErrorMsg("websocket.Accept(): %s\n", err)
		return
	}

	// r.Context() ends when this handler returns, the listener context does not
	conn := websocket.NetConn(l.ctx, c, websocket.MessageBinary)
	l.logger.VerboseMsg("WebSocket upgrade from %s", conn.RemoteAddr())

	select {
	case l.conns <- conn:
	case <-l.done:
		conn.Close()
	}
}

// Accept waits for the next upgraded connection.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.done:
		return nil, fmt.Errorf("accept ws %s: %w", l.nl.Addr(), net.ErrClosed)
	}
}

// Close stops accepting upgrades and closes the socket. Connections
// already returned by Accept stay open until closed individually or
// until the context passed to NewListener ends.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.srv.Close()
	})
	return err
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.nl.Addr()
}

var _ net.Listener = (*Listener)(nil)
