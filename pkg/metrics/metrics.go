// Package metrics exposes counters and gauges of the syslog and echo
// services in Prometheus format. Every collector set is optional: a nil
// *Registry yields nil collector sets whose methods do nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "netdemo"

// Registry holds the collectors of one process.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates a registry that already carries the Go runtime and
// process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg}
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// Syslog counts the traffic of the syslog listener.
type Syslog struct {
	packetsReceived  prometheus.Counter
	bytesReceived    prometheus.Counter
	packetsMalformed prometheus.Counter
	receiveErrors    prometheus.Counter
	lastActivity     prometheus.Gauge
}

// NewSyslog creates and registers the syslog collectors, or returns nil if r is nil.
func NewSyslog(r *Registry) *Syslog {
	if r == nil {
		return nil
	}

	m := &Syslog{
		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "syslog",
			Name:      "packets_received_total",
			Help:      "Syslog datagrams decoded and delivered",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "syslog",
			Name:      "bytes_received_total",
			Help:      "Bytes of all received syslog datagrams",
		}),
		packetsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "syslog",
			Name:      "packets_malformed_total",
			Help:      "Datagrams dropped because they could not be decoded",
		}),
		receiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "syslog",
			Name:      "receive_errors_total",
			Help:      "Socket read errors encountered",
		}),
		lastActivity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "syslog",
			Name:      "last_activity_timestamp",
			Help:      "Unix timestamp of the last received datagram",
		}),
	}

	r.reg.MustRegister(m.packetsReceived, m.bytesReceived, m.packetsMalformed, m.receiveErrors, m.lastActivity)
	return m
}

// Received records a datagram of n bytes, whether it decodes or not.
func (m *Syslog) Received(n int) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(n))
	m.lastActivity.SetToCurrentTime()
}

// Delivered records a decoded record handed to the subscriber.
func (m *Syslog) Delivered() {
	if m == nil {
		return
	}
	m.packetsReceived.Inc()
}

// Malformed records a datagram that failed to decode or did not fit the buffer.
func (m *Syslog) Malformed() {
	if m == nil {
		return
	}
	m.packetsMalformed.Inc()
}

// ReceiveError records a failed socket read.
func (m *Syslog) ReceiveError() {
	if m == nil {
		return
	}
	m.receiveErrors.Inc()
}

// Echo counts the connections and traffic of the echo server.
type Echo struct {
	connectionsTotal   prometheus.Counter
	connectionsActive  prometheus.Gauge
	connectionsRefused *prometheus.CounterVec
	bytesEchoed        prometheus.Counter
	broadcasts         prometheus.Counter
	writeErrors        prometheus.Counter
}

// NewEcho creates and registers the echo collectors, or returns nil if r is nil.
func NewEcho(r *Registry) *Echo {
	if r == nil {
		return nil
	}

	m := &Echo{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "connections_total",
			Help:      "Connections registered since start",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "connections_active",
			Help:      "Currently registered connections",
		}),
		connectionsRefused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "connections_refused_total",
			Help:      "Connections closed before registration, by reason",
		}, []string{"reason"}),
		bytesEchoed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "bytes_echoed_total",
			Help:      "Bytes echoed back to clients",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "broadcast_deliveries_total",
			Help:      "Broadcast messages delivered to individual clients",
		}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "write_errors_total",
			Help:      "Failed writes to clients",
		}),
	}

	r.reg.MustRegister(m.connectionsTotal, m.connectionsActive, m.connectionsRefused, m.bytesEchoed, m.broadcasts, m.writeErrors)
	return m
}

// Connected records a newly registered connection.
func (m *Echo) Connected() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

// Disconnected records a connection leaving the registry.
func (m *Echo) Disconnected() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

// Refused records a connection closed before registration, e.g. "handshake" or "limit".
func (m *Echo) Refused(reason string) {
	if m == nil {
		return
	}
	m.connectionsRefused.WithLabelValues(reason).Inc()
}

// Echoed records n bytes echoed to a client.
func (m *Echo) Echoed(n int) {
	if m == nil {
		return
	}
	m.bytesEchoed.Add(float64(n))
}

// Broadcast records a broadcast that reached delivered clients and failed on failed clients.
func (m *Echo) Broadcast(delivered, failed int) {
	if m == nil {
		return
	}
	m.broadcasts.Add(float64(delivered))
	m.writeErrors.Add(float64(failed))
}

// WriteError records a failed write to a client.
func (m *Echo) WriteError() {
	if m == nil {
		return
	}
	m.writeErrors.Inc()
}
