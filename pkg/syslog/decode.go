package syslog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMalformedPacket is returned when a datagram cannot be decoded.
var ErrMalformedPacket = errors.New("malformed syslog packet")

// timestampLen is the length of "Mmm dd hh:mm:ss".
const timestampLen = len(TimestampLayout)

// whitespace separates the hostname from its neighbours.
const whitespace = " \t"

// Decode parses one datagram payload, using the current time to complete the
// year of the timestamp.
func Decode(p []byte) (Record, error) {
	return DecodeAt(p, time.Now())
}

// DecodeAt parses one datagram payload. RFC 3164 timestamps carry no year, so
// it is taken from now, in now's location. A timestamp more than a month
// ahead of now is assumed to belong to the previous year.
func DecodeAt(p []byte, now time.Time) (Record, error) {
	rec := Record{Priority: DefaultPriority}

	p = bytes.TrimRight(p, "\r\n\x00")

	if len(p) > 0 && p[0] == '<' {
		pri, n, err := parsePriority(p)
		if err != nil {
			return Record{}, err
		}
		rec.Priority = pri
		p = p[n:]
	}

	ts, ok := parseTimestamp(p, now)
	if !ok {
		rec.Message = string(p)
		return rec, nil
	}
	rec.Timestamp = ts
	rec.HasTimestamp = true

	rest := bytes.TrimLeft(p[timestampLen+1:], whitespace)
	if i := bytes.IndexAny(rest, whitespace); i >= 0 {
		rec.Hostname = string(rest[:i])
		rec.Message = string(bytes.TrimLeft(rest[i:], whitespace))
	} else {
		rec.Hostname = string(rest)
	}

	return rec, nil
}

// parsePriority reads "<digits>" at the start of p and returns the value and
// the number of bytes consumed.
func parsePriority(p []byte) (int, int, error) {
	end := bytes.IndexByte(p, '>')
	if end < 0 {
		return 0, 0, fmt.Errorf("%w: unterminated priority", ErrMalformedPacket)
	}

	digits := p[1:end]
	if len(digits) == 0 {
		return 0, 0, fmt.Errorf("%w: empty priority", ErrMalformedPacket)
	}
	if len(digits) > 3 {
		return 0, 0, fmt.Errorf("%w: priority longer than 3 digits", ErrMalformedPacket)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("%w: invalid priority %q", ErrMalformedPacket, digits)
		}
	}

	pri, _ := strconv.Atoi(string(digits))
	if pri > MaxPriority {
		return 0, 0, fmt.Errorf("%w: priority %d out of range", ErrMalformedPacket, pri)
	}

	return pri, end + 1, nil
}

// parseTimestamp matches "Mmm dd hh:mm:ss " at the start of p.
func parseTimestamp(p []byte, now time.Time) (time.Time, bool) {
	if len(p) < timestampLen+1 || p[timestampLen] != ' ' {
		return time.Time{}, false
	}

	// time.Parse is lenient about single-digit fields, the fixed positions are not
	raw := p[:timestampLen]
	if raw[3] != ' ' || raw[6] != ' ' || raw[9] != ':' || raw[12] != ':' {
		return time.Time{}, false
	}
	if raw[4] != ' ' && !isDigit(raw[4]) {
		return time.Time{}, false
	}
	for _, i := range []int{5, 7, 8, 10, 11, 13, 14} {
		if !isDigit(raw[i]) {
			return time.Time{}, false
		}
	}

	t, err := time.Parse(TimestampLayout, string(raw))
	if err != nil {
		return time.Time{}, false
	}

	ts := time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
	if ts.Month() != t.Month() {
		// Feb 29 outside a leap year
		return time.Time{}, false
	}
	if ts.After(now.AddDate(0, 1, 0)) {
		ts = ts.AddDate(-1, 0, 0)
	}

	return ts, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
