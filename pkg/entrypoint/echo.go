package entrypoint

import (
	"context"
	"errors"
	"fmt"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/console"
	"dominicbreuker/netdemo/pkg/echo"
	"dominicbreuker/netdemo/pkg/metrics"
	"dominicbreuker/netdemo/pkg/pipeio"
	"dominicbreuker/netdemo/pkg/registry"
)

const (
	echoStarted = "\r\nStarted Listening.\n"
	echoStopped = ">Stopped Listening.\n"
)

// Echo runs the echo/broadcast server with the operator console on stdio.
// It returns once the operator exits, ctx ends or the server shuts down.
// Bind failures are returned as *transport.BindError.
func Echo(ctx context.Context, cfg *config.Shared, eCfg *config.Echo) error {
	return echoServe(ctx, cfg, eCfg, realEchoFactory())
}

// echoServe is the internal implementation that accepts injected dependencies for testing.
func echoServe(parent context.Context, cfg *config.Shared, eCfg *config.Echo, newServer echoFactory) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stdio := pipeio.NewStdio(cfg.Deps)
	defer stdio.Close()

	mreg, stopMetrics, err := startMetrics(cfg)
	if err != nil {
		return fmt.Errorf("starting metrics: %w", err)
	}
	defer stopMetrics()

	m := metrics.NewEcho(mreg)
	reg := registry.New(
		registry.WithWriteTimeout(cfg.Timeout),
		registry.WithHooks(
			func(*registry.Connection) { m.Connected() },
			func(*registry.Connection) { m.Disconnected() },
		),
	)

	s, err := newServer(cfg, eCfg, reg, echo.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("creating echo server: %w", err)
	}
	if err := s.Listen(ctx); err != nil {
		// releases the traffic log opened by newServer
		if serr := s.Shutdown(); serr != nil {
			cfg.Logger.ErrorMsg("Shutting down: %s\n", serr)
		}
		return err
	}
	fmt.Fprint(stdio, echoStarted)

	consoleDone := make(chan error, 1)
	go func() {
		consoleDone <- console.New(stdio, s, s.Shutdown, cfg.Logger).Run(ctx)
	}()

	select {
	case err := <-consoleDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			cfg.Logger.ErrorMsg("Console: %s\n", err)
		}
		// without console input the server keeps running until cancelled
		select {
		case <-s.Done():
		case <-ctx.Done():
		}
	case <-s.Done():
	case <-ctx.Done():
	}

	cancel()
	err = s.Shutdown()
	fmt.Fprint(stdio, echoStopped)

	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
