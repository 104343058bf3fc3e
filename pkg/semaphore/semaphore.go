// Package semaphore caps the number of connections the echo server handles
// at the same time.
package semaphore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLimitReached is returned when no slot frees up within the wait period.
var ErrLimitReached = errors.New("connection limit reached")

// ConnSemaphore hands out a fixed number of connection slots.
// A nil *ConnSemaphore is valid and never limits anything.
type ConnSemaphore struct {
	sem  chan struct{}
	wait time.Duration
}

// New creates a semaphore with n slots. Acquire waits at most wait for a
// slot to free up; zero means it does not wait at all.
// It returns nil if n is not positive, which disables the limit.
func New(n int, wait time.Duration) *ConnSemaphore {
	if n <= 0 {
		return nil
	}

	sem := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		sem <- struct{}{}
	}
	return &ConnSemaphore{sem: sem, wait: wait}
}

// Acquire takes a slot. It fails with ErrLimitReached if none frees up in
// time, or with the context's error if ctx ends first.
func (s *ConnSemaphore) Acquire(ctx context.Context) error {
	if s == nil {
		return nil
	}

	select {
	case <-s.sem:
		return nil
	default:
	}

	if s.wait <= 0 {
		return ErrLimitReached
	}

	timer := time.NewTimer(s.wait)
	defer timer.Stop()

	select {
	case <-s.sem:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: no slot freed within %v", ErrLimitReached, s.wait)
	}
}

// Release returns a slot taken by Acquire.
func (s *ConnSemaphore) Release() {
	if s == nil {
		return
	}
	s.sem <- struct{}{}
}

// InUse returns the number of slots currently taken.
func (s *ConnSemaphore) InUse() int {
	if s == nil {
		return 0
	}
	return cap(s.sem) - len(s.sem)
}
