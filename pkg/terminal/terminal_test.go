package terminal

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"dominicbreuker/netdemo/mocks"
)

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	defer r.Close()
	defer w.Close()

	tests := []struct {
		name string
		r    io.Reader
	}{
		{"buffer", &bytes.Buffer{}},
		{"pipe", r},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if IsTerminal(tc.r) {
				t.Errorf("IsTerminal(%s) = true, want false", tc.name)
			}
		})
	}
}

func TestWaitForKey_Input(t *testing.T) {
	t.Parallel()

	mockStdio := mocks.NewMockStdio()
	defer mockStdio.Close()

	go mockStdio.WriteToStdin([]byte("\n"))

	in := io.NopCloser(mockStdio.GetStdin())
	if !WaitForKey(context.Background(), in) {
		t.Error("WaitForKey() = false, want true after input")
	}
}

type closeRecorder struct {
	io.Reader
	closed chan struct{}
}

func (c *closeRecorder) Close() error {
	close(c.closed)
	return nil
}

func TestWaitForKey_Cancel(t *testing.T) {
	t.Parallel()

	mockStdio := mocks.NewMockStdio()
	defer mockStdio.Close()

	in := &closeRecorder{Reader: mockStdio.GetStdin(), closed: make(chan struct{})}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if WaitForKey(ctx, in) {
		t.Error("WaitForKey() = true, want false on cancellation")
	}

	select {
	case <-in.closed:
	default:
		t.Error("input was not closed on cancellation")
	}
}

func TestWaitForKey_EOFWaitsForContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		done <- WaitForKey(ctx, io.NopCloser(&bytes.Buffer{}))
	}()

	select {
	case <-done:
		t.Fatal("WaitForKey() returned on EOF before cancellation")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case got := <-done:
		if got {
			t.Error("WaitForKey() = true, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForKey() did not return after cancellation")
	}
}
