// Package config holds the validated settings of the syslog and echo services
// together with injectable dependencies used for testing.
package config

import (
	"fmt"
	"time"

	"dominicbreuker/netdemo/pkg/log"
)

// Protocol selects the stream transport of the echo server.
type Protocol int

const (
	// ProtoTCP is a plain TCP transport.
	ProtoTCP Protocol = iota + 1
	// ProtoWS is a WebSocket transport over plain HTTP.
	ProtoWS
	// ProtoWSS is a WebSocket transport over HTTPS.
	ProtoWSS
	// ProtoUDP is a reliable stream over UDP (KCP).
	ProtoUDP
)

// String returns the scheme name of the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoWS:
		return "ws"
	case ProtoWSS:
		return "wss"
	case ProtoUDP:
		return "udp"
	default:
		return ""
	}
}

// ParseProtocol maps a scheme name to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "tcp", "":
		return ProtoTCP, nil
	case "ws":
		return ProtoWS, nil
	case "wss":
		return ProtoWSS, nil
	case "udp":
		return ProtoUDP, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q, must be tcp|ws|wss|udp", s)
	}
}

// KeySalt is prepended to mTLS keys before deriving certificates.
var KeySalt = "bn6ySqbg2BgmHaljx3mhg94DOybkBF3G" // overwrite with custom value during release build

// Shared holds the settings common to all services.
type Shared struct {
	Host    string
	Port    int
	Verbose bool

	// Timeout bounds TLS handshakes and individual writes. Zero disables it.
	Timeout time.Duration

	// Metrics is the listen address of the Prometheus endpoint, empty to disable it.
	Metrics string

	Logger *log.Logger
	Deps   *Dependencies
}

// Validate ...
func (c *Shared) Validate() []error {
	var errors []error

	if err := validatePort(c.Port); err != nil {
		errors = append(errors, fmt.Errorf("port: %s", err))
	}

	if c.Timeout < 0 {
		errors = append(errors, fmt.Errorf("'--timeout' must not be negative"))
	}

	return errors
}
