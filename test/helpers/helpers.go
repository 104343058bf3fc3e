// Package helpers provides common utilities for integration tests.
package helpers

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"dominicbreuker/netdemo/mocks"
	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/log"
	"dominicbreuker/netdemo/pkg/transport/ws"

	"github.com/coder/websocket"
)

// Env bundles the in-memory networks and stdio a service runs against.
type Env struct {
	TCP   *mocks.MockTCPNetwork
	UDP   *mocks.MockUDPNetwork
	Stdio *mocks.MockStdio
	Deps  *config.Dependencies
}

// SetupMockDependencies creates a complete set of mock dependencies
// for testing with mocked networks and stdio.
func SetupMockDependencies(t *testing.T) *Env {
	t.Helper()

	env := &Env{
		TCP:   mocks.NewMockTCPNetwork(),
		UDP:   mocks.NewMockUDPNetwork(),
		Stdio: mocks.NewMockStdio(),
	}
	env.Deps = &config.Dependencies{
		TCPListener:    env.TCP.ListenTCP,
		PacketListener: env.UDP.ListenPacket,
		Stdin:          func() io.Reader { return env.Stdio.GetStdin() },
		Stdout:         func() io.Writer { return env.Stdio.GetStdout() },
	}
	t.Cleanup(func() { env.Stdio.Close() })

	return env
}

// Config returns shared settings for a service on port using env.
func (env *Env) Config(port int) *config.Shared {
	return &config.Shared{
		Host:    "127.0.0.1",
		Port:    port,
		Timeout: 2 * time.Second,
		Logger:  log.NewLoggerTo(io.Discard, false),
		Deps:    env.Deps,
	}
}

// DialWS opens a WebSocket stream to addr over the mock TCP network.
func (env *Env) DialWS(ctx context.Context, addr string) (net.Conn, error) {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, _, address string) (net.Conn, error) {
				return env.TCP.Dial(address)
			},
		},
	}

	c, _, err := websocket.Dial(ctx, "ws://"+addr, &websocket.DialOptions{
		HTTPClient:   client,
		Subprotocols: []string{ws.Subprotocol},
	})
	if err != nil {
		return nil, err
	}

	return websocket.NetConn(ctx, c, websocket.MessageBinary), nil
}

// Run starts fn in the background and returns a channel with its result.
func Run(fn func() error) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()
	return errCh
}

// Wait returns the result from errCh or fails the test after timeout.
func Wait(t *testing.T, errCh <-chan error, timeout time.Duration) error {
	t.Helper()

	select {
	case err := <-errCh:
		return err
	case <-time.After(timeout):
		t.Fatalf("no result after %s", timeout)
		return nil
	}
}

// ReadExactly reads n bytes from conn or fails the test.
func ReadExactly(t *testing.T, conn net.Conn, n int) string {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	return string(buf)
}
