// Package echo implements the echo/broadcast server: every accepted client
// gets its own bytes sent back, and the operator can push a line to all
// clients at once.
package echo

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/format"
	"dominicbreuker/netdemo/pkg/log"
	"dominicbreuker/netdemo/pkg/metrics"
	pkgnet "dominicbreuker/netdemo/pkg/net"
	"dominicbreuker/netdemo/pkg/registry"
	"dominicbreuker/netdemo/pkg/semaphore"
	"dominicbreuker/netdemo/pkg/transport"
)

const (
	readBufferSize = 4096
	acceptBackoff  = 50 * time.Millisecond

	// slotWait is how long a new client waits for a free slot when --max-conns is reached.
	slotWait = time.Second
)

// HandshakeError reports a failed TLS handshake. Only the affected
// connection is closed; the server keeps running.
type HandshakeError struct {
	Addr string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("TLS handshake with %s: %s", e.Addr, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics counts echoed bytes, broadcasts and refused connections in m.
func WithMetrics(m *metrics.Echo) Option {
	return func(s *Server) { s.metrics = m }
}

// listenFunc opens the stream listener; tests replace it.
type listenFunc func(ctx context.Context, cfg *config.Shared, eCfg *config.Echo) (net.Listener, error)

// Server is the echo/broadcast server.
type Server struct {
	cfg     *config.Shared
	eCfg    *config.Echo
	reg     *registry.Registry
	logger  *log.Logger
	metrics *metrics.Echo
	traffic *log.TrafficLog
	sem     *semaphore.ConnSemaphore
	tlsCfg  *tls.Config
	listen  listenFunc

	mu         sync.Mutex
	nl         net.Listener
	ctx        context.Context
	cancel     context.CancelFunc
	acceptDone chan struct{}
	handlers   sync.WaitGroup

	shutdownOnce sync.Once
	shutdownErr  error
	done         chan struct{}
}

// New creates a server that registers its clients in reg. TLS material and
// the traffic log are prepared here, so configuration problems surface
// before anything is bound.
func New(cfg *config.Shared, eCfg *config.Echo, reg *registry.Registry, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		eCfg:   eCfg,
		reg:    reg,
		logger: cfg.Logger,
		sem:    semaphore.New(eCfg.MaxConns, slotWait),
		listen: pkgnet.Listen,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if eCfg.SSL {
		tlsCfg, err := pkgnet.ServerTLSConfig(eCfg, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("building server TLS config: %w", err)
		}
		s.tlsCfg = tlsCfg
	}

	if eCfg.LogFile != "" {
		traffic, err := log.NewTrafficLog(eCfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("opening traffic log: %w", err)
		}
		s.traffic = traffic
	}

	return s, nil
}

// Registry returns the registry of connected clients.
func (s *Server) Registry() *registry.Registry {
	return s.reg
}

// Listen binds the listener and starts accepting clients in the background.
// Bind failures are returned as *transport.BindError. When ctx ends the
// server shuts down as if Shutdown had been called.
func (s *Server) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nl != nil {
		return errors.New("echo server already listening")
	}
	select {
	case <-s.done:
		return errors.New("echo server already shut down")
	default:
	}

	sctx, cancel := context.WithCancel(ctx)
	nl, err := s.listen(sctx, s.cfg, s.eCfg)
	if err != nil {
		cancel()
		return err
	}

	s.nl = nl
	s.ctx = sctx
	s.cancel = cancel
	s.acceptDone = make(chan struct{})

	go s.acceptLoop(nl)
	go func() {
		select {
		case <-ctx.Done():
			s.Shutdown()
		case <-s.done:
		}
	}()

	s.logger.VerboseMsg("Echo server listening on %s (%s)", nl.Addr(), s.eCfg.Protocol)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nl == nil {
		return nil
	}
	return s.nl.Addr()
}

// Done is closed once Shutdown has completed.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) acceptLoop(nl net.Listener) {
	defer close(s.acceptDone)

	for {
		conn, err := nl.Accept()
		if err != nil {
			if s.ctx.Err() != nil || transport.IsClosed(err) {
				return
			}
			s.logger.ErrorMsg("Accept: %s\n", err)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(acceptBackoff):
			}
			continue
		}

		if err := s.sem.Acquire(s.ctx); err != nil {
			s.logger.ErrorMsg("Refusing %s: %s\n", conn.RemoteAddr(), err)
			s.metrics.Refused("limit")
			conn.Close()
			continue
		}

		// Add happens here only, and Shutdown waits for this loop before Wait
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			defer s.sem.Release()
			s.handle(conn)
		}()
	}
}

// handle runs one client from handshake to disconnect.
func (s *Server) handle(conn net.Conn) {
	// unblocks handshakes and reads once the server goes away
	stop := context.AfterFunc(s.ctx, func() { conn.Close() })
	defer stop()

	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	if s.tlsCfg != nil {
		tlsConn, err := pkgnet.ServerHandshake(conn, s.tlsCfg, s.cfg.Timeout, s.logger)
		if err != nil {
			herr := &HandshakeError{Addr: remote, Err: err}
			s.logger.ErrorMsg("%s\n", herr)
			s.metrics.Refused("handshake")
			conn.Close()
			return
		}
		conn = tlsConn
	}

	conn = s.traffic.Wrap(conn, remote)

	c := s.reg.Add(conn)
	c.SetEOL(registry.DefaultEOL)
	s.logger.InfoMsg("%s has connected (connection %d).\n", remote, c.ID())

	reason := s.echo(c)

	// Remove fails with ErrNotFound if a broadcast or shutdown got there first
	_ = s.reg.Remove(c.ID())
	s.logger.InfoMsg("Disconnected %s from %d.\n", reason, c.ID())
}

// echo sends everything c receives back to it and returns why it stopped.
func (s *Server) echo(c *registry.Connection) string {
	buf := make([]byte, readBufferSize)
	conn := c.Conn()

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := c.Write(buf[:n]); werr != nil {
				s.metrics.WriteError()
				return describe(s.ctx, werr)
			}
			s.metrics.Echoed(n)
			s.logger.InfoMsg("Echoing '%s' to client %s.\n", format.Payload(buf[:n]), c.RemoteAddr())
		}
		if err != nil {
			return describe(s.ctx, err)
		}
	}
}

// describe turns the error that ended a connection into a short reason.
func describe(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return "by peer"
	case ctx.Err() != nil:
		return "by server shutdown"
	case transport.IsClosed(err):
		return "by server"
	default:
		return fmt.Sprintf("(%s)", err)
	}
}

// BroadcastLine sends text followed by each client's EOL to every client.
// It returns how many clients received it; failed clients are logged and
// disconnected.
func (s *Server) BroadcastLine(text string) (int, error) {
	sent, err := s.reg.BroadcastLine(text)

	failed := 0
	if err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				failed++
				s.logger.ErrorMsg("%s\n", e)
			}
		}
	}
	s.metrics.Broadcast(sent, failed)

	return sent, err
}

// Shutdown stops accepting, disconnects every client and waits for all
// handlers to return. It may be called repeatedly and concurrently, also
// while broadcasts are in flight.
func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		nl := s.nl
		s.mu.Unlock()

		if nl != nil {
			if err := nl.Close(); err != nil && !transport.IsClosed(err) {
				s.shutdownErr = fmt.Errorf("closing listener: %w", err)
			}
			<-s.acceptDone

			// handlers woken by CloseAll must already see the cancellation
			s.cancel()
			n := s.reg.CloseAll()
			s.logger.VerboseMsg("Closed %d connections", n)

			s.handlers.Wait()
		}

		if err := s.traffic.Close(); err != nil && s.shutdownErr == nil {
			s.shutdownErr = fmt.Errorf("closing traffic log: %w", err)
		}

		close(s.done)
	})

	return s.shutdownErr
}
