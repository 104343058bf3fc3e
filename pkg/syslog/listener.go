package syslog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/format"
	"dominicbreuker/netdemo/pkg/metrics"
	"dominicbreuker/netdemo/pkg/transport"
	"dominicbreuker/netdemo/pkg/transport/udp"
)

// Packet is a decoded datagram together with where and when it arrived.
type Packet struct {
	Record
	From       net.Addr
	ReceivedAt time.Time
}

// Subscriber receives every decoded packet. It is called synchronously
// from the receive loop, one packet at a time.
type Subscriber func(Packet)

// Option customizes a Listener.
type Option func(*Listener)

// WithMetrics counts received, delivered and dropped datagrams in m.
func WithMetrics(m *metrics.Syslog) Option {
	return func(l *Listener) { l.metrics = m }
}

// WithClock replaces time.Now as the source of arrival times and timestamp years.
func WithClock(now func() time.Time) Option {
	return func(l *Listener) { l.now = now }
}

// Listener receives syslog datagrams on a UDP port and hands decoded
// records to its subscriber. Malformed datagrams are logged and dropped.
// Nothing is ever sent back to a sender.
type Listener struct {
	cfg     *config.Shared
	sCfg    *config.Syslog
	sub     Subscriber
	metrics *metrics.Syslog
	now     func() time.Time

	mu      sync.Mutex
	pl      *udp.PacketListener
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewListener creates a listener. Nothing is bound until Start.
func NewListener(cfg *config.Shared, sCfg *config.Syslog, sub Subscriber, opts ...Option) *Listener {
	l := &Listener{
		cfg:  cfg,
		sCfg: sCfg,
		sub:  sub,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start binds the UDP socket and runs the receive loop in the background.
// Bind failures are returned as *transport.BindError. The loop ends when
// ctx ends or Stop is called.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pl != nil || l.stopped {
		return errors.New("syslog listener already started")
	}

	addr := format.Addr(l.cfg.Host, l.cfg.Port)
	pl, err := udp.NewPacketListener(addr, udp.PacketOptions{
		BufferSize:   l.sCfg.MaxDatagramSize,
		PollInterval: l.sCfg.PollInterval,
		RecvBuffer:   l.sCfg.RecvBuffer,
		OnError:      func(error) { l.metrics.ReceiveError() },
		OnTruncated:  func(net.Addr) { l.metrics.Malformed() },
	}, l.cfg.Logger, l.cfg.Deps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	l.pl = pl
	l.cancel = cancel
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		if err := pl.Serve(ctx, l.handle); err != nil {
			l.cfg.Logger.ErrorMsg("Syslog receive loop: %s\n", err)
		}
	}()

	l.cfg.Logger.VerboseMsg("Syslog listener bound to %s", pl.Addr())
	return nil
}

// handle decodes one datagram and delivers it.
func (l *Listener) handle(payload []byte, from net.Addr) {
	l.metrics.Received(len(payload))

	now := l.now()
	rec, err := DecodeAt(payload, now)
	if err != nil {
		l.metrics.Malformed()
		l.cfg.Logger.ErrorMsg("Dropping datagram from %s: %s\n", format.Host(from), err)
		return
	}

	l.sub(Packet{Record: rec, From: from, ReceivedAt: now})
	l.metrics.Delivered()
}

// Addr returns the bound address, or nil if the listener is not running.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pl == nil {
		return nil
	}
	return l.pl.Addr()
}

// Stop cancels the receive loop, closes the socket and waits for the loop
// to return. It may be called repeatedly and before Start.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopped = true
	if l.pl == nil {
		return nil
	}

	l.cancel()
	err := l.pl.Close()
	<-l.done
	l.pl = nil

	if err != nil && !transport.IsClosed(err) {
		return fmt.Errorf("closing syslog socket: %w", err)
	}
	return nil
}

// Print writes a packet in the console layout: one field per line
// followed by a blank line.
func Print(w io.Writer, p Packet) error {
	ts := ""
	if p.HasTimestamp {
		ts = p.Timestamp.Format(TimestampLayout)
	}

	_, err := fmt.Fprintf(w, "Host: %s\nFacility: %s\nSeverity: %s\nTime: %s\nMessage: %s\n\n",
		p.Hostname, p.Facility(), p.Severity(), ts, p.Message)
	return err
}
