package config

import "fmt"

// Echo configures the echo/broadcast server.
type Echo struct {
	Protocol Protocol

	SSL      bool
	Key      string // mTLS shared secret
	CertFile string // PEM certificate, generated if empty
	KeyFile  string // PEM private key for CertFile

	// MaxConns caps concurrently handled connections. Zero means unlimited.
	MaxConns int

	// LogFile receives a copy of all traffic if set.
	LogFile string
}

// Validate ...
func (eCfg *Echo) Validate() []error {
	var errors []error

	if eCfg.Protocol.String() == "" {
		errors = append(errors, fmt.Errorf("invalid protocol %d", eCfg.Protocol))
	}

	if !eCfg.SSL && eCfg.Key != "" {
		errors = append(errors, fmt.Errorf("You must use '--ssl' to use '--key'"))
	}

	if !eCfg.SSL && (eCfg.CertFile != "" || eCfg.KeyFile != "") {
		errors = append(errors, fmt.Errorf("You must use '--ssl' to use '--cert' and '--cert-key'"))
	}

	if (eCfg.CertFile == "") != (eCfg.KeyFile == "") {
		errors = append(errors, fmt.Errorf("'--cert' and '--cert-key' must be used together"))
	}

	if eCfg.Key != "" && eCfg.CertFile != "" {
		errors = append(errors, fmt.Errorf("'--key' derives its own certificates and cannot be combined with '--cert'"))
	}

	if eCfg.MaxConns < 0 {
		errors = append(errors, fmt.Errorf("'--max-conns' must not be negative"))
	}

	return errors
}

// GetKey returns the salted mTLS key, or an empty string if none is set.
func (eCfg *Echo) GetKey() string {
	if eCfg.Key == "" {
		return ""
	}

	return KeySalt + eCfg.Key
}
