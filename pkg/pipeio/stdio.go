// Package pipeio wraps the process's standard streams for the interactive
// parts of netdemo: the operator console and the stop-key watcher.
package pipeio

import (
	"errors"
	"io"

	"dominicbreuker/netdemo/pkg/config"

	"github.com/muesli/cancelreader"
)

// Stdio provides a ReadWriteCloser interface for standard I/O streams.
// It uses cancelable reading from stdin when supported, allowing reads
// to be interrupted via Close.
type Stdio struct {
	stdin            io.Reader
	cancellableStdin cancelreader.CancelReader

	stdout io.Writer
}

// NewStdio creates a new Stdio with cancelable stdin reading if supported by the platform.
// The deps parameter is optional and can be nil to use os.Stdin and os.Stdout.
func NewStdio(deps *config.Dependencies) *Stdio {
	out := Stdio{
		stdin:  config.GetStdinFunc(deps)(),
		stdout: config.GetStdoutFunc(deps)(),
	}

	cancellableStdin, err := cancelreader.NewReader(out.stdin)
	if err != nil {
		return &out
	}

	out.cancellableStdin = cancellableStdin
	return &out
}

// Stdin returns the underlying stdin reader.
func (s *Stdio) Stdin() io.Reader {
	return s.stdin
}

// Read reads from stdin, using the cancelable reader if available.
// A read interrupted by Close returns io.EOF.
func (s *Stdio) Read(p []byte) (n int, err error) {
	if s.cancellableStdin != nil {
		n, err = s.cancellableStdin.Read(p)
		if errors.Is(err, cancelreader.ErrCanceled) {
			return n, io.EOF
		}
		return n, err
	}

	return s.stdin.Read(p)
}

// Write writes to stdout.
func (s *Stdio) Write(p []byte) (n int, err error) {
	return s.stdout.Write(p)
}

// Close cancels any pending reads from stdin if using a cancelable reader.
// Stdout is left open.
func (s *Stdio) Close() error {
	if s.cancellableStdin != nil {
		s.cancellableStdin.Cancel()
	}
	return nil
}
