package entrypoint

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"dominicbreuker/netdemo/mocks"
	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/echo"
	"dominicbreuker/netdemo/pkg/registry"
	"dominicbreuker/netdemo/pkg/transport"
)

func startEcho(t *testing.T, ctx context.Context, port int) (*mocks.MockStdio, *mocks.MockTCPNetwork, <-chan error) {
	t.Helper()

	mockStdio := mocks.NewMockStdio()
	t.Cleanup(func() { mockStdio.Close() })
	mockNet := mocks.NewMockTCPNetwork()

	cfg := testConfig(port, mockStdio)
	cfg.Deps.TCPListener = mockNet.ListenTCP

	errCh := make(chan error, 1)
	go func() {
		errCh <- echoServe(ctx, cfg, &config.Echo{Protocol: config.ProtoTCP}, realEchoFactory())
	}()

	if err := mockStdio.WaitForOutput("Started Listening.", 2000); err != nil {
		t.Fatal(err)
	}
	if err := mockStdio.WaitForOutput("- 2 Exit", 2000); err != nil {
		t.Fatal(err)
	}

	return mockStdio, mockNet, errCh
}

func readExactly(t *testing.T, conn net.Conn, n int) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	return string(buf)
}

func TestEcho_ConsoleSession(t *testing.T) {
	t.Parallel()

	mockStdio, mockNet, errCh := startEcho(t, context.Background(), 7777)

	client, err := mockNet.Dial("127.0.0.1:7777")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	client.Write([]byte("ping"))
	if got := readExactly(t, client, 4); got != "ping" {
		t.Errorf("echo = %q, want %q", got, "ping")
	}

	mockStdio.WriteToStdin([]byte("1\n"))
	if err := mockStdio.WaitForOutput("Please input sending data: ", 2000); err != nil {
		t.Fatal(err)
	}

	received := make(chan string, 1)
	go func() {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, len("hello all\r\n"))
		io.ReadFull(client, buf)
		received <- string(buf)
	}()

	mockStdio.WriteToStdin([]byte("hello all\n"))
	if got := <-received; got != "hello all\r\n" {
		t.Errorf("broadcast = %q, want %q", got, "hello all\r\n")
	}
	if err := mockStdio.WaitForOutput("Sending success.", 2000); err != nil {
		t.Error(err)
	}

	mockStdio.WriteToStdin([]byte("2\n"))
	if err := waitErr(t, errCh); err != nil {
		t.Errorf("echoServe() error = %v", err)
	}
	if err := mockStdio.WaitForOutput(">Stopped Listening.", 2000); err != nil {
		t.Error(err)
	}

	// exiting disconnects the client
	client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := client.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("client Read() after exit error = %v, want io.EOF", err)
	}
}

func TestEcho_NoClients(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mockStdio, _, errCh := startEcho(t, ctx, 7778)

	mockStdio.WriteToStdin([]byte("1\nanyone?\n"))
	if err := mockStdio.WaitForOutput("No connected client.", 2000); err != nil {
		t.Error(err)
	}

	cancel()
	if err := waitErr(t, errCh); err != nil {
		t.Errorf("echoServe() error = %v", err)
	}
}

func TestEcho_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	mockStdio, mockNet, errCh := startEcho(t, ctx, 7779)

	client, err := mockNet.Dial("127.0.0.1:7779")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	cancel()
	if err := waitErr(t, errCh); err != nil {
		t.Errorf("echoServe() error = %v", err)
	}
	if err := mockStdio.WaitForOutput("Stopped Listening.", 2000); err != nil {
		t.Error(err)
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := client.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("client Read() after cancel error = %v, want io.EOF", err)
	}
}

func TestEcho_ServesAfterStdinEOF(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mockStdio, mockNet, errCh := startEcho(t, ctx, 7780)

	// non-interactive runs lose stdin immediately
	mockStdio.Close()

	select {
	case err := <-errCh:
		t.Fatalf("echoServe() returned %v after stdin EOF, want it to keep serving", err)
	case <-time.After(100 * time.Millisecond):
	}

	client, err := mockNet.Dial("127.0.0.1:7780")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	client.Write([]byte("still here"))
	if got := readExactly(t, client, 10); got != "still here" {
		t.Errorf("echo = %q, want %q", got, "still here")
	}

	cancel()
	if err := waitErr(t, errCh); err != nil {
		t.Errorf("echoServe() error = %v", err)
	}
}

type fakeEchoServer struct {
	listenErr error
	done      chan struct{}
	shutdowns atomic.Int32
}

func (f *fakeEchoServer) Listen(context.Context) error { return f.listenErr }
func (f *fakeEchoServer) Done() <-chan struct{}        { return f.done }
func (f *fakeEchoServer) Addr() net.Addr               { return nil }

func (f *fakeEchoServer) Shutdown() error {
	f.shutdowns.Add(1)
	return nil
}

func (f *fakeEchoServer) BroadcastLine(string) (int, error) {
	return 0, nil
}

func TestEcho_BindError(t *testing.T) {
	t.Parallel()

	mockStdio := mocks.NewMockStdio()
	defer mockStdio.Close()
	cfg := testConfig(7781, mockStdio)

	fake := &fakeEchoServer{
		listenErr: transport.NewBindError("tcp", "127.0.0.1:7781", errors.New("address already in use")),
		done:      make(chan struct{}),
	}
	factory := func(*config.Shared, *config.Echo, *registry.Registry, ...echo.Option) (echoServer, error) {
		return fake, nil
	}

	err := echoServe(context.Background(), cfg, &config.Echo{Protocol: config.ProtoTCP}, factory)

	var be *transport.BindError
	if !errors.As(err, &be) {
		t.Errorf("echoServe() error = %v, want *transport.BindError", err)
	}
	if n := fake.shutdowns.Load(); n != 1 {
		t.Errorf("Shutdown() called %d times after failed Listen, want 1", n)
	}
}

func TestEcho_FactoryError(t *testing.T) {
	t.Parallel()

	mockStdio := mocks.NewMockStdio()
	defer mockStdio.Close()
	cfg := testConfig(7782, mockStdio)

	want := errors.New("bad certificate")
	factory := func(*config.Shared, *config.Echo, *registry.Registry, ...echo.Option) (echoServer, error) {
		return nil, want
	}

	if err := echoServe(context.Background(), cfg, &config.Echo{}, factory); !errors.Is(err, want) {
		t.Errorf("echoServe() error = %v, want %v", err, want)
	}
}
