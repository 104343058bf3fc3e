// Package registry tracks the live connections of the echo server and
// writes to them individually or all at once.
package registry

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"
)

// DefaultEOL terminates lines written with WriteLine and BroadcastLine.
const DefaultEOL = "\r\n"

// ErrNotFound is returned for IDs that are not registered.
var ErrNotFound = errors.New("connection not found")

// ID identifies a connection for the lifetime of a Registry. IDs start at 1
// and are never reused.
type ID uint64

// WriteError reports a failed write to one connection.
type WriteError struct {
	ID  ID
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing to connection %d: %s", e.ID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Connection is one registered client.
type Connection struct {
	id           ID
	conn         net.Conn
	remote       string
	writeTimeout time.Duration

	mu  sync.Mutex // serializes writes
	eol string

	closeOnce sync.Once
	closeErr  error
}

// ID returns the registry-assigned identifier.
func (c *Connection) ID() ID {
	return c.id
}

// RemoteAddr returns the peer address as a string.
func (c *Connection) RemoteAddr() string {
	return c.remote
}

// Conn returns the underlying connection.
func (c *Connection) Conn() net.Conn {
	return c.conn
}

// EOL returns the line terminator used by WriteLine.
func (c *Connection) EOL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eol
}

// SetEOL changes the line terminator used by WriteLine.
func (c *Connection) SetEOL(eol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eol = eol
}

// Write sends p in full. Concurrent writes to the same connection never
// interleave. With a write timeout, a stalled peer fails the write instead
// of blocking it forever.
func (c *Connection) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(p)
}

// WriteLine sends text followed by the connection's EOL.
func (c *Connection) WriteLine(text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write([]byte(text + c.eol))
}

func (c *Connection) write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return c.conn.Write(p)
}

// Close closes the underlying connection. Only the first call has an effect.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Option customizes a Registry.
type Option func(*Registry)

// WithWriteTimeout bounds every write to a connection. Zero disables the bound.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) { r.writeTimeout = d }
}

// WithHooks registers callbacks run after a connection is added and after it
// is removed. Either may be nil.
func WithHooks(onAdd, onRemove func(*Connection)) Option {
	return func(r *Registry) {
		r.onAdd = onAdd
		r.onRemove = onRemove
	}
}

// Registry is a concurrency-safe set of connections keyed by ID.
type Registry struct {
	mu     sync.RWMutex
	conns  map[ID]*Connection
	nextID ID

	writeTimeout time.Duration
	onAdd        func(*Connection)
	onRemove     func(*Connection)
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{conns: make(map[ID]*Connection)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers conn under a fresh ID.
func (r *Registry) Add(conn net.Conn) *Connection {
	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	c := &Connection{
		conn:         conn,
		remote:       remote,
		writeTimeout: r.writeTimeout,
		eol:          DefaultEOL,
	}

	r.mu.Lock()
	r.nextID++
	c.id = r.nextID
	r.conns[c.id] = c
	r.mu.Unlock()

	if r.onAdd != nil {
		r.onAdd(c)
	}
	return c
}

// Remove unregisters and closes the connection with the given ID.
// It returns ErrNotFound if the ID is not registered, e.g. because it was
// already removed.
func (r *Registry) Remove(id ID) error {
	r.mu.Lock()
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("removing %d: %w", id, ErrNotFound)
	}

	c.Close()
	if r.onRemove != nil {
		r.onRemove(c)
	}
	return nil
}

// Get returns the connection with the given ID.
func (r *Registry) Get(id ID) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return nil, fmt.Errorf("getting %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// snapshot returns the registered connections ordered by ID.
func (r *Registry) snapshot() []*Connection {
	r.mu.RLock()
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// ForEach calls fn for every connection registered at the time of the call,
// in ID order. fn may add or remove connections.
func (r *Registry) ForEach(fn func(*Connection)) {
	for _, c := range r.snapshot() {
		fn(c)
	}
}

// Broadcast writes p to every registered connection and returns how many
// writes succeeded. A failed connection is removed; the others are still
// served. All failures are returned joined, each as a *WriteError.
func (r *Registry) Broadcast(p []byte) (int, error) {
	return r.broadcast(func(c *Connection) (int, error) { return c.Write(p) })
}

// BroadcastLine is Broadcast with each connection's EOL appended to text.
func (r *Registry) BroadcastLine(text string) (int, error) {
	return r.broadcast(func(c *Connection) (int, error) { return c.WriteLine(text) })
}

func (r *Registry) broadcast(write func(*Connection) (int, error)) (int, error) {
	conns := r.snapshot()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
		errs []error
	)

	for _, c := range conns {
		wg.Add(1)
		go func(c *Connection) {
			defer wg.Done()

			if _, err := write(c); err != nil {
				mu.Lock()
				errs = append(errs, &WriteError{ID: c.id, Err: err})
				mu.Unlock()
				_ = r.Remove(c.id)
				return
			}

			mu.Lock()
			sent++
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	sort.Slice(errs, func(i, j int) bool {
		return errs[i].(*WriteError).ID < errs[j].(*WriteError).ID
	})
	return sent, errors.Join(errs...)
}

// CloseAll removes and closes every connection and returns how many there were.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[ID]*Connection)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
		if r.onRemove != nil {
			r.onRemove(c)
		}
	}
	return len(conns)
}
