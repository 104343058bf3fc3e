// Package format renders addresses and payloads for log output.
package format

import (
	"fmt"
	"net"
	"strings"
)

// Addr joins host and port, bracketing IPv6 hosts.
func Addr(host string, port int) string {
	if strings.ContainsAny(host, ":") { // IPv6
		return fmt.Sprintf("[%s]:%d", host, port)
	} else { // IPv4
		return fmt.Sprintf("%s:%d", host, port)
	}
}

// Host returns the host part of addr, or addr itself if it has no port.
// A nil address yields "unknown".
func Host(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// Payload renders bytes received from a client for a single log line:
// one trailing line ending is dropped and remaining control bytes are escaped.
func Payload(p []byte) string {
	s := strings.TrimSuffix(string(p), "\n")
	s = strings.TrimSuffix(s, "\r")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\x%02x", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
