package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
)

func TestBindError(t *testing.T) {
	t.Parallel()

	err := NewBindError("udp", ":514", syscall.EACCES)

	if got := err.Error(); got != "binding udp :514: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, syscall.EACCES) {
		t.Error("errors.Is(err, EACCES) = false, want true")
	}

	var wrapped error = fmt.Errorf("starting: %w", err)
	var be *BindError
	if !errors.As(wrapped, &be) {
		t.Fatal("errors.As(*BindError) = false, want true")
	}
	if be.Addr != ":514" {
		t.Errorf("Addr = %q, want %q", be.Addr, ":514")
	}
}

func TestIsClosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"net.ErrClosed", net.ErrClosed, true},
		{"wrapped net.ErrClosed", fmt.Errorf("accept: %w", net.ErrClosed), true},
		{"closed pipe", io.ErrClosedPipe, true},
		{"mock listener", errors.New("listener closed"), true},
		{"eof", io.EOF, false},
		{"other", errors.New("connection reset by peer"), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsClosed(tc.err); got != tc.want {
				t.Errorf("IsClosed(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
