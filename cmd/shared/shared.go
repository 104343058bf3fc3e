// Package shared provides common CLI flag definitions and utility functions
// used across netdemo's command-line interface.
package shared

import (
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/log"

	"github.com/urfave/cli/v3"
)

const categoryCommon = "common"

// HostFlag is the name of the flag to specify the local or remote host.
const HostFlag = "host"

// PortFlag is the name of the flag to specify the UDP port.
const PortFlag = "port"

// VerboseFlag is the name of the flag to enable verbose error logging.
const VerboseFlag = "verbose"

// TimeoutFlag is the name of the flag to specify operation timeout in milliseconds.
const TimeoutFlag = "timeout"

// MetricsFlag is the name of the flag to serve Prometheus metrics.
const MetricsFlag = "metrics"

// GetCommonFlags returns the flags shared by all services.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     HostFlag,
			Aliases:  []string{},
			Usage:    "Local interface, leave empty for all interfaces",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose error logging",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
		&cli.IntFlag{
			Name:     TimeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Operation timeout in milliseconds (TLS handshake, writes to clients), 0 to disable",
			Category: categoryCommon,
			Value:    10000, // 10 seconds default
			Required: false,
		},
		&cli.StringFlag{
			Name:     MetricsFlag,
			Aliases:  []string{"m"},
			Usage:    "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9100",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
	}
}

const categorySyslog = "syslog"

// MaxSizeFlag is the name of the flag to specify the largest accepted datagram.
const MaxSizeFlag = "max-size"

// RecvBufferFlag is the name of the flag to specify the socket receive buffer.
const RecvBufferFlag = "recv-buffer"

// GetSyslogListenFlags returns the flags specific to the syslog receiver.
func GetSyslogListenFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     PortFlag,
			Aliases:  []string{"p"},
			Usage:    "Local UDP port",
			Category: categorySyslog,
			Value:    config.DefaultSyslogPort,
			Required: false,
		},
		&cli.IntFlag{
			Name:     MaxSizeFlag,
			Aliases:  []string{},
			Usage:    "Largest datagram in bytes, longer ones are dropped",
			Category: categorySyslog,
			Value:    8192,
			Required: false,
		},
		&cli.IntFlag{
			Name:     RecvBufferFlag,
			Aliases:  []string{},
			Usage:    "Socket receive buffer in bytes, 0 for the system default",
			Category: categorySyslog,
			Value:    0,
			Required: false,
		},
	}
}

// FacilityFlag is the name of the flag to specify the facility of a sent message.
const FacilityFlag = "facility"

// SeverityFlag is the name of the flag to specify the severity of a sent message.
const SeverityFlag = "severity"

// HostnameFlag is the name of the flag to specify the hostname of a sent message.
const HostnameFlag = "hostname"

// GetSyslogSendFlags returns the flags specific to sending a syslog message.
func GetSyslogSendFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     PortFlag,
			Aliases:  []string{"p"},
			Usage:    "Remote UDP port",
			Category: categorySyslog,
			Value:    config.DefaultSyslogPort,
			Required: false,
		},
		&cli.StringFlag{
			Name:     FacilityFlag,
			Aliases:  []string{"f"},
			Usage:    "Facility name or number (kernel, user, ..., local7)",
			Category: categorySyslog,
			Value:    "user",
			Required: false,
		},
		&cli.StringFlag{
			Name:     SeverityFlag,
			Aliases:  []string{"s"},
			Usage:    "Severity name or number (emerg, alert, ..., debug)",
			Category: categorySyslog,
			Value:    "notice",
			Required: false,
		},
		&cli.StringFlag{
			Name:     HostnameFlag,
			Aliases:  []string{},
			Usage:    "Hostname in the message, leave empty for this host's name",
			Category: categorySyslog,
			Value:    "",
			Required: false,
		},
	}
}

const categoryEcho = "echo"

// SSLFlag is the name of the flag to enable TLS encryption.
const SSLFlag = "ssl"

// KeyFlag is the name of the flag to specify the mTLS authentication key.
const KeyFlag = "key"

// CertFlag is the name of the flag to specify a PEM certificate.
const CertFlag = "cert"

// CertKeyFlag is the name of the flag to specify the private key of CertFlag.
const CertKeyFlag = "cert-key"

// MaxConnsFlag is the name of the flag to cap concurrent clients.
const MaxConnsFlag = "max-conns"

// LogFileFlag is the name of the flag to specify a traffic log file.
const LogFileFlag = "log"

// GetEchoFlags returns the flags specific to the echo server.
func GetEchoFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     SSLFlag,
			Aliases:  []string{"s"},
			Usage:    "Use TLS encryption",
			Category: categoryEcho,
			Value:    false,
			Required: false,
		},
		&cli.StringFlag{
			Name:     KeyFlag,
			Aliases:  []string{"k"},
			Usage:    "Key for mTLS authentication, leave empty to disable authentication",
			Category: categoryEcho,
			Value:    "",
			Required: false,
		},
		&cli.StringFlag{
			Name:     CertFlag,
			Aliases:  []string{},
			Usage:    "PEM certificate for TLS, leave empty to generate one",
			Category: categoryEcho,
			Value:    "",
			Required: false,
		},
		&cli.StringFlag{
			Name:     CertKeyFlag,
			Aliases:  []string{},
			Usage:    "PEM private key of --cert",
			Category: categoryEcho,
			Value:    "",
			Required: false,
		},
		&cli.IntFlag{
			Name:     MaxConnsFlag,
			Aliases:  []string{},
			Usage:    "Maximum number of concurrent clients, 0 for unlimited",
			Category: categoryEcho,
			Value:    0,
			Required: false,
		},
		&cli.StringFlag{
			Name:     LogFileFlag,
			Aliases:  []string{"l"},
			Usage:    "Log all client traffic to this file",
			Category: categoryEcho,
			Value:    "",
			Required: false,
		},
	}
}

// SharedConfig builds the common settings from the parsed flags.
func SharedConfig(cmd *cli.Command, port int) *config.Shared {
	verbose := cmd.Bool(VerboseFlag)

	return &config.Shared{
		Host:    cmd.String(HostFlag),
		Port:    port,
		Verbose: verbose,
		Timeout: time.Duration(cmd.Int(TimeoutFlag)) * time.Millisecond,
		Metrics: cmd.String(MetricsFlag),
		Logger:  log.NewLogger(verbose),
	}
}

// ReportValidationErrors prints errs and reports whether there were any.
func ReportValidationErrors(logger *log.Logger, errs []error) bool {
	if len(errs) == 0 {
		return false
	}

	logger.ErrorMsg("Argument validation errors:\n")
	for _, err := range errs {
		logger.ErrorMsg(" - %s\n", err)
	}
	return true
}
