package entrypoint

import (
	"context"
	"io"
	"net"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/echo"
	"dominicbreuker/netdemo/pkg/metrics"
	"dominicbreuker/netdemo/pkg/registry"
	"dominicbreuker/netdemo/pkg/syslog"
	"dominicbreuker/netdemo/pkg/terminal"
)

// syslogListener defines the part of *syslog.Listener used here.
type syslogListener interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
}

// syslogFactory is a function type for creating syslog listeners.
type syslogFactory func(cfg *config.Shared, sCfg *config.Syslog, sub syslog.Subscriber, opts ...syslog.Option) syslogListener

// realSyslogFactory returns the actual syslog listener factory used in production.
func realSyslogFactory() syslogFactory {
	return func(cfg *config.Shared, sCfg *config.Syslog, sub syslog.Subscriber, opts ...syslog.Option) syslogListener {
		return syslog.NewListener(cfg, sCfg, sub, opts...)
	}
}

// echoServer defines the part of *echo.Server used here.
type echoServer interface {
	Listen(ctx context.Context) error
	Shutdown() error
	Done() <-chan struct{}
	Addr() net.Addr
	BroadcastLine(text string) (int, error)
}

// echoFactory is a function type for creating echo servers.
type echoFactory func(cfg *config.Shared, eCfg *config.Echo, reg *registry.Registry, opts ...echo.Option) (echoServer, error)

// realEchoFactory returns the actual echo server factory used in production.
func realEchoFactory() echoFactory {
	return func(cfg *config.Shared, eCfg *config.Echo, reg *registry.Registry, opts ...echo.Option) (echoServer, error) {
		s, err := echo.New(cfg, eCfg, reg, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// senderFunc delivers a single syslog record.
type senderFunc func(ctx context.Context, addr string, rec syslog.Record) error

// interactiveFunc reports whether the operator can press a key on r.
type interactiveFunc func(r io.Reader) bool

func realInteractive() interactiveFunc {
	return terminal.IsTerminal
}

// startMetrics serves Prometheus metrics if cfg.Metrics is set. The returned
// registry is nil when metrics are disabled, which disables all collectors.
func startMetrics(cfg *config.Shared) (*metrics.Registry, func(), error) {
	if cfg.Metrics == "" {
		return nil, func() {}, nil
	}

	reg := metrics.NewRegistry()
	srv := metrics.NewServer(reg, cfg.Logger)
	if err := srv.Start(cfg.Metrics); err != nil {
		return nil, nil, err
	}
	cfg.Logger.InfoMsg("Serving metrics on http://%s%s\n", srv.Addr(), metrics.Path)

	return reg, func() { _ = srv.Stop() }, nil
}
