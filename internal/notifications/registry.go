// Package notifications tracks live connections per identity and speaks the
// small message protocol used on them.
package notifications

import (
	"context"
	"errors"
	"sync"

	"dajtovon/internal/observability"
)

// DefaultMaxConnsPerIdentity bounds how many live connections one identity may hold.
const DefaultMaxConnsPerIdentity = 12

var (
	ErrEmptyIdentity      = errors.New("identity is required")
	ErrTooManyConnections = errors.New("identity connection limit reached")
)

// Conn is one live, push-capable connection.
type Conn interface {
	ID() string
	Send(message []byte) error
}

// Registry maps identities to their live connections. A connection belongs
// to at most one identity at any time.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]map[Conn]struct{}
	owners   map[Conn]string
	maxConns int
	log      *observability.WSLogger
}

// NewRegistry creates a registry allowing maxConns connections per identity.
// Values below one fall back to DefaultMaxConnsPerIdentity.
func NewRegistry(maxConns int) *Registry {
	if maxConns < 1 {
		maxConns = DefaultMaxConnsPerIdentity
	}
	return &Registry{
		conns:    make(map[string]map[Conn]struct{}),
		owners:   make(map[Conn]string),
		maxConns: maxConns,
		log:      observability.NewWSLogger("registry"),
	}
}

// Register binds conn to identity, moving it away from any identity it was
// previously registered under. Re-registering under the same identity is a no-op.
func (r *Registry) Register(conn Conn, identity string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}

	r.mu.Lock()
	prev, known := r.owners[conn]
	if known && prev == identity {
		r.mu.Unlock()
		return nil
	}
	if len(r.conns[identity]) >= r.maxConns {
		r.mu.Unlock()
		return ErrTooManyConnections
	}
	if known {
		r.detach(conn, prev)
	}
	m, ok := r.conns[identity]
	if !ok {
		m = make(map[Conn]struct{})
		r.conns[identity] = m
	}
	m[conn] = struct{}{}
	r.owners[conn] = identity
	total := len(r.owners)
	r.mu.Unlock()

	observability.WebSocketConnectionsTotal.Set(float64(total))
	if known {
		r.log.LogDisconnect(context.Background(), prev, conn.ID(), "re-registered")
	}
	r.log.LogConnect(context.Background(), identity, conn.ID())
	return nil
}

// Unregister removes conn from whichever identity owns it. It reports the
// former owner; unknown connections are ignored.
func (r *Registry) Unregister(conn Conn) (string, bool) {
	r.mu.Lock()
	identity, ok := r.owners[conn]
	if ok {
		r.detach(conn, identity)
	}
	total := len(r.owners)
	r.mu.Unlock()

	if ok {
		observability.WebSocketConnectionsTotal.Set(float64(total))
		r.log.LogDisconnect(context.Background(), identity, conn.ID(), "unregistered")
	}
	return identity, ok
}

// detach requires r.mu held for writing.
func (r *Registry) detach(conn Conn, identity string) {
	delete(r.owners, conn)
	if m, ok := r.conns[identity]; ok {
		delete(m, conn)
		if len(m) == 0 {
			delete(r.conns, identity)
		}
	}
}

// Resolve returns a snapshot of the connections registered under identity.
// The slice is never nil.
func (r *Registry) Resolve(identity string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.conns[identity]
	out := make([]Conn, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}

// Identity returns the identity conn is registered under.
func (r *Registry) Identity(conn Conn) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.owners[conn]
	return identity, ok
}

// Online reports whether identity has at least one registered connection.
func (r *Registry) Online(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[identity]) > 0
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}

// Shutdown drops every registration and closes connections that support it.
func (r *Registry) Shutdown(_ context.Context) error {
	r.mu.Lock()
	all := make([]Conn, 0, len(r.owners))
	for c := range r.owners {
		all = append(all, c)
	}
	r.conns = make(map[string]map[Conn]struct{})
	r.owners = make(map[Conn]string)
	r.mu.Unlock()

	observability.WebSocketConnectionsTotal.Set(0)
	var errs []error
	for _, c := range all {
		if closer, ok := c.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
