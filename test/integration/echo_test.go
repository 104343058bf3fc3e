package integration

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/entrypoint"
	"dominicbreuker/netdemo/test/helpers"
)

func startEcho(t *testing.T, env *helpers.Env, port int, eCfg *config.Echo) <-chan error {
	t.Helper()

	cfg := env.Config(port)
	errCh := helpers.Run(func() error { return entrypoint.Echo(context.Background(), cfg, eCfg) })

	if err := env.Stdio.WaitForOutput("Started Listening.", 2000); err != nil {
		t.Fatal(err)
	}
	if err := env.Stdio.WaitForOutput(">", 2000); err != nil {
		t.Fatal(err)
	}
	return errCh
}

// broadcast sends text through the console and waits for the confirmation.
func broadcast(t *testing.T, env *helpers.Env, text string, clients []net.Conn) []string {
	t.Helper()

	results := make(chan string, len(clients))
	for _, c := range clients {
		go func(c net.Conn) {
			c.SetReadDeadline(time.Now().Add(2 * time.Second))
			buf := make([]byte, len(text)+2)
			n, _ := io.ReadFull(c, buf)
			results <- string(buf[:n])
		}(c)
	}

	env.Stdio.WriteToStdin([]byte("1\n" + text + "\n"))

	got := make([]string, 0, len(clients))
	for range clients {
		got = append(got, <-results)
	}
	return got
}

// TestEcho_Session walks through a whole operator session: clients come
// and go, the operator broadcasts twice and exits.
func TestEcho_Session(t *testing.T) {
	env := helpers.SetupMockDependencies(t)
	errCh := startEcho(t, env, 7000, &config.Echo{Protocol: config.ProtoTCP})

	var clients []net.Conn
	for i := 0; i < 3; i++ {
		c, err := env.TCP.Dial("127.0.0.1:7000")
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		defer c.Close()
		clients = append(clients, c)
	}

	// each client only hears itself
	for i, c := range clients {
		msg := []string{"alpha", "bravo", "delta"}[i]
		c.Write([]byte(msg))
		if got := helpers.ReadExactly(t, c, len(msg)); got != msg {
			t.Errorf("client %d echo = %q, want %q", i, got, msg)
		}
	}

	for i, got := range broadcast(t, env, "first", clients) {
		if got != "first\r\n" {
			t.Errorf("client %d broadcast = %q, want %q", i, got, "first\r\n")
		}
	}

	clients[0].Close()
	time.Sleep(100 * time.Millisecond)

	for i, got := range broadcast(t, env, "second", clients[1:]) {
		if got != "second\r\n" {
			t.Errorf("client %d broadcast = %q, want %q", i+1, got, "second\r\n")
		}
	}

	env.Stdio.WriteToStdin([]byte("2\n"))
	if err := helpers.Wait(t, errCh, 3*time.Second); err != nil {
		t.Errorf("Echo() error = %v", err)
	}
	if err := env.Stdio.WaitForOutput("Stopped Listening.", 2000); err != nil {
		t.Error(err)
	}

	for i, c := range clients[1:] {
		c.SetReadDeadline(time.Now().Add(time.Second))
		if _, err := c.Read(make([]byte, 1)); err != io.EOF {
			t.Errorf("client %d Read() after exit error = %v, want io.EOF", i+1, err)
		}
	}
}

// TestEcho_WebSocket serves the same session over WebSocket streams.
func TestEcho_WebSocket(t *testing.T) {
	env := helpers.SetupMockDependencies(t)
	errCh := startEcho(t, env, 7001, &config.Echo{Protocol: config.ProtoWS})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := env.DialWS(ctx, "127.0.0.1:7001")
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer c.Close()

	c.Write([]byte("over websocket"))
	if got := helpers.ReadExactly(t, c, len("over websocket")); got != "over websocket" {
		t.Errorf("echo = %q, want %q", got, "over websocket")
	}

	if got := broadcast(t, env, "to ws", []net.Conn{c}); got[0] != "to ws\r\n" {
		t.Errorf("broadcast = %q, want %q", got[0], "to ws\r\n")
	}

	env.Stdio.WriteToStdin([]byte("2\n"))
	if err := helpers.Wait(t, errCh, 3*time.Second); err != nil {
		t.Errorf("Echo() error = %v", err)
	}
}

// TestEcho_MaxConns refuses clients above the configured limit.
func TestEcho_MaxConns(t *testing.T) {
	env := helpers.SetupMockDependencies(t)
	errCh := startEcho(t, env, 7002, &config.Echo{Protocol: config.ProtoTCP, MaxConns: 1})

	first, err := env.TCP.Dial("127.0.0.1:7002")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer first.Close()
	first.Write([]byte("1"))
	helpers.ReadExactly(t, first, 1)

	second, err := env.TCP.Dial("127.0.0.1:7002")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer second.Close()

	second.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, err := second.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("second client Read() error = %v, want io.EOF", err)
	}

	env.Stdio.WriteToStdin([]byte("2\n"))
	if err := helpers.Wait(t, errCh, 3*time.Second); err != nil {
		t.Errorf("Echo() error = %v", err)
	}
}
