package config

import (
	"fmt"
	"time"
)

// DefaultSyslogPort is the well-known syslog port.
const DefaultSyslogPort = 514

// Syslog configures the syslog listener.
type Syslog struct {
	// MaxDatagramSize is the size of the receive buffer. Longer datagrams are dropped.
	MaxDatagramSize int

	// PollInterval bounds each blocking receive so a stop request is observed promptly.
	PollInterval time.Duration

	// RecvBuffer sets SO_RCVBUF on the socket when positive.
	RecvBuffer int
}

// Validate ...
func (sCfg *Syslog) Validate() []error {
	var errors []error

	if sCfg.MaxDatagramSize < 480 || sCfg.MaxDatagramSize > 65535 {
		errors = append(errors, fmt.Errorf("'--max-size' must be in [480, 65535]"))
	}

	if sCfg.PollInterval <= 0 {
		errors = append(errors, fmt.Errorf("poll interval must be positive"))
	}

	if sCfg.RecvBuffer < 0 {
		errors = append(errors, fmt.Errorf("'--recv-buffer' must not be negative"))
	}

	return errors
}

// Send configures a single outgoing syslog message.
type Send struct {
	Facility int
	Severity int
	Hostname string
	Message  string
}

// Validate ...
func (sCfg *Send) Validate() []error {
	var errors []error

	if sCfg.Facility < 0 || sCfg.Facility > 23 {
		errors = append(errors, fmt.Errorf("facility %d not in [0, 23]", sCfg.Facility))
	}

	if sCfg.Severity < 0 || sCfg.Severity > 7 {
		errors = append(errors, fmt.Errorf("severity %d not in [0, 7]", sCfg.Severity))
	}

	if sCfg.Message == "" {
		errors = append(errors, fmt.Errorf("message must not be empty"))
	}

	return errors
}
