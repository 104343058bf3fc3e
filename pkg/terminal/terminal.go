// Package terminal detects an interactive operator and waits for them to
// press a key.
package terminal

import (
	"context"
	"io"

	"golang.org/x/term"
)

type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether r is backed by an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// WaitForKey blocks until a byte can be read from in or ctx ends.
// It reports whether input arrived. When ctx ends first, in is closed to
// unblock the pending read, so in should be cancellable (see pipeio.Stdio).
// Reaching EOF without input counts as no input and returns once ctx ends.
func WaitForKey(ctx context.Context, in io.ReadCloser) bool {
	pressed := make(chan bool, 1)
	go func() {
		buf := make([]byte, 1)
		n, _ := in.Read(buf)
		pressed <- n > 0
	}()

	select {
	case ok := <-pressed:
		if ok {
			return true
		}
		<-ctx.Done()
		return false
	case <-ctx.Done():
		in.Close()
		return false
	}
}
