// Package entrypoint provides the entry functions of the netdemo services.
// They wire listeners, metrics and the operator's terminal together,
// separating that from CLI argument parsing.
package entrypoint

import (
	"context"
	"fmt"
	"os"
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/format"
	"dominicbreuker/netdemo/pkg/metrics"
	"dominicbreuker/netdemo/pkg/pipeio"
	"dominicbreuker/netdemo/pkg/syslog"
	"dominicbreuker/netdemo/pkg/terminal"
)

const syslogStarted = "Syslog server started. To stop, press any key.\n"

// SyslogListen receives syslog datagrams and prints every decoded record
// until ctx ends or, on an interactive terminal, the operator presses a key.
// Bind failures are returned as *transport.BindError.
func SyslogListen(ctx context.Context, cfg *config.Shared, sCfg *config.Syslog) error {
	return syslogListen(ctx, cfg, sCfg, realSyslogFactory(), realInteractive())
}

// syslogListen is the internal implementation that accepts injected dependencies for testing.
func syslogListen(
	parent context.Context,
	cfg *config.Shared,
	sCfg *config.Syslog,
	newListener syslogFactory,
	interactive interactiveFunc,
) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stdio := pipeio.NewStdio(cfg.Deps)
	defer stdio.Close()

	reg, stopMetrics, err := startMetrics(cfg)
	if err != nil {
		return fmt.Errorf("starting metrics: %w", err)
	}
	defer stopMetrics()

	// called from the single receive goroutine, so prints never interleave
	printRecord := func(p syslog.Packet) {
		if err := syslog.Print(stdio, p); err != nil {
			cfg.Logger.ErrorMsg("Printing record: %s\n", err)
		}
	}

	l := newListener(cfg, sCfg, printRecord, syslog.WithMetrics(metrics.NewSyslog(reg)))
	if err := l.Start(ctx); err != nil {
		return err
	}
	defer l.Stop()

	cfg.Logger.VerboseMsg("Receiving syslog on %s", l.Addr())
	fmt.Fprint(stdio, syslogStarted)

	if interactive(stdio.Stdin()) {
		if terminal.WaitForKey(ctx, stdio) {
			cfg.Logger.VerboseMsg("Key pressed, stopping")
		}
	} else {
		<-ctx.Done()
	}

	if err := l.Stop(); err != nil {
		return fmt.Errorf("stopping syslog listener: %w", err)
	}
	return nil
}

// SyslogSend sends one syslog message to cfg.Host:cfg.Port, stamped with the
// current time.
func SyslogSend(ctx context.Context, cfg *config.Shared, snd *config.Send) error {
	return syslogSend(ctx, cfg, snd, syslog.Send, time.Now)
}

func syslogSend(ctx context.Context, cfg *config.Shared, snd *config.Send, send senderFunc, now func() time.Time) error {
	hostname := snd.Hostname
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("determining hostname: %w", err)
		}
		hostname = h
	}

	rec := syslog.Record{
		Priority:     syslog.Priority(syslog.Facility(snd.Facility), syslog.Severity(snd.Severity)),
		Timestamp:    now(),
		HasTimestamp: true,
		Hostname:     hostname,
		Message:      snd.Message,
	}

	addr := format.Addr(cfg.Host, cfg.Port)
	if err := send(ctx, addr, rec); err != nil {
		return fmt.Errorf("sending to %s: %w", addr, err)
	}

	cfg.Logger.VerboseMsg("Sent %q to %s", rec.Bytes(), addr)
	return nil
}
