package log

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// TrafficLog records the bytes read from and written to a set of connections
// in a single file. Each chunk is written as one line:
//
//	2006-01-02T15:04:05Z <label> <direction> "<payload>"
//
// where direction is "<" for inbound and ">" for outbound data.
type TrafficLog struct {
	w  io.WriteCloser
	mu sync.Mutex
}

// NewTrafficLog creates or appends to the log file at path.
func NewTrafficLog(path string) (*TrafficLog, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &TrafficLog{w: f}, nil
}

func (tl *TrafficLog) record(label, dir string, b []byte) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	_, err := fmt.Fprintf(tl.w, "%s %s %s %q\n", time.Now().UTC().Format(time.RFC3339), label, dir, b)
	return err
}

// Wrap returns a connection that logs all traffic of conn under label.
// A nil TrafficLog returns conn unchanged.
func (tl *TrafficLog) Wrap(conn net.Conn, label string) net.Conn {
	if tl == nil {
		return conn
	}

	return &loggedConn{Conn: conn, log: tl, label: label}
}

// Close closes the underlying file.
func (tl *TrafficLog) Close() error {
	if tl == nil {
		return nil
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.w.Close()
}

// loggedConn wraps a net.Conn and logs all read/write operations to a TrafficLog.
type loggedConn struct {
	net.Conn
	log   *TrafficLog
	label string
}

func (lc *loggedConn) Read(b []byte) (int, error) {
	n, err := lc.Conn.Read(b)
	if n > 0 {
		if lerr := lc.log.record(lc.label, "<", b[:n]); lerr != nil {
			return n, fmt.Errorf("logging read: %w", lerr)
		}
	}
	return n, err
}

func (lc *loggedConn) Write(b []byte) (int, error) {
	n, err := lc.Conn.Write(b)
	if n > 0 {
		if lerr := lc.log.record(lc.label, ">", b[:n]); lerr != nil {
			return n, fmt.Errorf("logging write: %w", lerr)
		}
	}
	return n, err
}
