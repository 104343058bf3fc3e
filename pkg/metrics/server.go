package metrics

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"dominicbreuker/netdemo/pkg/log"
	"dominicbreuker/netdemo/pkg/transport"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Path is where the collectors are served.
const Path = "/metrics"

// Server serves a Registry over HTTP.
type Server struct {
	registry *Registry
	logger   *log.Logger

	mu  sync.Mutex
	srv *http.Server
	nl  net.Listener
}

// NewServer creates a server for registry. Nothing is bound until Start.
func NewServer(registry *Registry, logger *log.Logger) *Server {
	return &Server{registry: registry, logger: logger}
}

// Start binds addr and serves in the background. Bind failures are
// returned as *transport.BindError.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return fmt.Errorf("metrics server already running on %s", s.nl.Addr())
	}

	nl, err := net.Listen("tcp", addr)
	if err != nil {
		return transport.NewBindError("tcp", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(Path, promhttp.HandlerFor(s.registry.Prometheus(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.nl = nl
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := s.srv
	go func() {
		if err := srv.Serve(nl); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorMsg("Metrics server: %s\n", err)
		}
	}()

	s.logger.VerboseMsg("Serving metrics on http://%s%s", nl.Addr(), Path)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nl == nil {
		return nil
	}
	return s.nl.Addr()
}

// Stop closes the server. It may be called repeatedly.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}

	err := s.srv.Close()
	s.srv = nil
	s.nl = nil
	return err
}
