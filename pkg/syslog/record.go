// Package syslog decodes RFC 3164 style syslog datagrams and runs a UDP
// listener that hands decoded records to a subscriber.
package syslog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPriority is assumed for messages without a <PRI> prefix (user.notice).
const DefaultPriority = 13

// MaxPriority is the largest valid PRI value (local7.debug).
const MaxPriority = 191

// TimestampLayout is the RFC 3164 timestamp format.
const TimestampLayout = "Jan _2 15:04:05"

// Facility identifies the subsystem that produced a message.
type Facility int

var facilityNames = [...]string{
	"kernel", "user", "mail", "daemon", "auth", "syslog", "lpr", "news",
	"uucp", "clock", "authpriv", "ftp", "ntp", "audit", "alert", "clock2",
	"local0", "local1", "local2", "local3", "local4", "local5", "local6", "local7",
}

// String returns the well-known name of the facility.
func (f Facility) String() string {
	if f < 0 || int(f) >= len(facilityNames) {
		return fmt.Sprintf("facility(%d)", int(f))
	}
	return facilityNames[f]
}

// ParseFacility accepts a facility name or its number.
func ParseFacility(s string) (Facility, error) {
	for i, name := range facilityNames {
		if strings.EqualFold(s, name) {
			return Facility(i), nil
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= len(facilityNames) {
		return 0, fmt.Errorf("unknown facility %q", s)
	}
	return Facility(n), nil
}

// Severity classifies the urgency of a message.
type Severity int

var severityNames = [...]string{
	"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug",
}

// String returns the well-known name of the severity.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity accepts a severity name or its number.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i), nil
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= len(severityNames) {
		return 0, fmt.Errorf("unknown severity %q", s)
	}
	return Severity(n), nil
}

// Priority combines a facility and a severity into a PRI value.
func Priority(f Facility, s Severity) int {
	return int(f)*8 + int(s)
}

// Record is one decoded syslog message. It is treated as an immutable value.
type Record struct {
	Priority int

	// Timestamp is only meaningful if HasTimestamp is true.
	Timestamp    time.Time
	HasTimestamp bool

	Hostname string
	Message  string
}

// Facility is derived from the priority.
func (r Record) Facility() Facility {
	return Facility(r.Priority / 8)
}

// Severity is derived from the priority.
func (r Record) Severity() Severity {
	return Severity(r.Priority % 8)
}

// Bytes renders the record in wire format. Decoding the result yields an equal record.
func (r Record) Bytes() []byte {
	var b strings.Builder

	b.WriteString("<")
	b.WriteString(strconv.Itoa(r.Priority))
	b.WriteString(">")

	if r.HasTimestamp {
		b.WriteString(r.Timestamp.Format(TimestampLayout))
		b.WriteString(" ")
		b.WriteString(r.Hostname)
		b.WriteString(" ")
	}
	b.WriteString(r.Message)

	return []byte(b.String())
}

// Equal reports whether two records carry the same fields.
func (r Record) Equal(o Record) bool {
	if r.HasTimestamp != o.HasTimestamp {
		return false
	}
	if r.HasTimestamp && !r.Timestamp.Equal(o.Timestamp) {
		return false
	}
	return r.Priority == o.Priority && r.Hostname == o.Hostname && r.Message == o.Message
}
