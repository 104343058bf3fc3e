package log

import (
	"bytes"
	"net"
	"os"
	"strings"
	"testing"
	"time"
)

// mockConn implements net.Conn for testing
type mockConn struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
}

func newMockConn() *mockConn {
	return &mockConn{
		readBuf:  new(bytes.Buffer),
		writeBuf: new(bytes.Buffer),
	}
}

func (m *mockConn) Read(b []byte) (int, error) {
	return m.readBuf.Read(b)
}

func (m *mockConn) Write(b []byte) (int, error) {
	return m.writeBuf.Write(b)
}

func (m *mockConn) Close() error {
	return nil
}

func (m *mockConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 8080}
}

func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9090}
}

func (m *mockConn) SetDeadline(t time.Time) error {
	return nil
}

func (m *mockConn) SetReadDeadline(t time.Time) error {
	return nil
}

func (m *mockConn) SetWriteDeadline(t time.Time) error {
	return nil
}

func TestNewTrafficLog(t *testing.T) {
	t.Parallel()

	tmpFile := t.TempDir() + "/traffic.log"

	tl, err := NewTrafficLog(tmpFile)
	if err != nil {
		t.Fatalf("NewTrafficLog() error = %v", err)
	}
	defer tl.Close()

	if _, err := os.Stat(tmpFile); os.IsNotExist(err) {
		t.Error("NewTrafficLog() did not create log file")
	}
}

func TestNewTrafficLog_InvalidPath(t *testing.T) {
	t.Parallel()

	if _, err := NewTrafficLog(t.TempDir() + "/missing/dir/traffic.log"); err == nil {
		t.Error("NewTrafficLog() with missing directory, want error")
	}
}

func TestTrafficLog_ReadWrite(t *testing.T) {
	t.Parallel()

	tmpFile := t.TempDir() + "/traffic.log"
	tl, err := NewTrafficLog(tmpFile)
	if err != nil {
		t.Fatalf("NewTrafficLog() error = %v", err)
	}

	conn := newMockConn()
	conn.readBuf.WriteString("ping")
	wrapped := tl.Wrap(conn, "conn-1")

	buf := make([]byte, 16)
	n, err := wrapped.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, err := wrapped.Write(buf[:n]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if conn.writeBuf.String() != "ping" {
		t.Errorf("underlying conn got %q, want %q", conn.writeBuf.String(), "ping")
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2: %q", len(lines), content)
	}
	if !strings.Contains(lines[0], `conn-1 < "ping"`) {
		t.Errorf("first line = %q, want inbound record", lines[0])
	}
	if !strings.Contains(lines[1], `conn-1 > "ping"`) {
		t.Errorf("second line = %q, want outbound record", lines[1])
	}
}

func TestTrafficLog_NilWrap(t *testing.T) {
	t.Parallel()

	var tl *TrafficLog
	conn := newMockConn()

	if got := tl.Wrap(conn, "x"); got != net.Conn(conn) {
		t.Error("nil TrafficLog should return the connection unchanged")
	}
	if err := tl.Close(); err != nil {
		t.Errorf("Close() on nil TrafficLog error = %v", err)
	}
}
