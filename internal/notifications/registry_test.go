package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	err    error
	closed bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, message)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) last(t *testing.T) Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.frames)
	var env Envelope
	require.NoError(t, json.Unmarshal(f.frames[len(f.frames)-1], &env))
	return env
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry(0)
	a1, a2 := newFakeConn("a1"), newFakeConn("a2")

	require.NoError(t, r.Register(a1, "alice"))
	require.NoError(t, r.Register(a2, "alice"))

	conns := r.Resolve("alice")
	assert.ElementsMatch(t, []Conn{a1, a2}, conns)
	assert.True(t, r.Online("alice"))
	assert.Equal(t, 2, r.Count())

	unknown := r.Resolve("nobody")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestRegistry_ReRegisterMovesConnection(t *testing.T) {
	r := NewRegistry(0)
	c := newFakeConn("c")

	require.NoError(t, r.Register(c, "alice"))
	require.NoError(t, r.Register(c, "bob"))

	assert.Empty(t, r.Resolve("alice"))
	assert.False(t, r.Online("alice"))
	assert.Equal(t, []Conn{c}, r.Resolve("bob"))
	identity, ok := r.Identity(c)
	assert.True(t, ok)
	assert.Equal(t, "bob", identity)
	assert.Equal(t, 1, r.Count())

	// same identity again is a no-op
	require.NoError(t, r.Register(c, "bob"))
	assert.Len(t, r.Resolve("bob"), 1)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(0)
	c := newFakeConn("c")
	require.NoError(t, r.Register(c, "alice"))

	identity, ok := r.Unregister(c)
	assert.True(t, ok)
	assert.Equal(t, "alice", identity)
	assert.Empty(t, r.Resolve("alice"))
	assert.Zero(t, r.Count())

	_, ok = r.Unregister(c)
	assert.False(t, ok, "unknown connection is ignored")
}

func TestRegistry_RejectsEmptyIdentity(t *testing.T) {
	r := NewRegistry(0)
	assert.ErrorIs(t, r.Register(newFakeConn("c"), ""), ErrEmptyIdentity)
	assert.Zero(t, r.Count())
}

func TestRegistry_ConnectionCap(t *testing.T) {
	r := NewRegistry(2)
	require.NoError(t, r.Register(newFakeConn("1"), "alice"))
	require.NoError(t, r.Register(newFakeConn("2"), "alice"))

	moved := newFakeConn("3")
	require.NoError(t, r.Register(moved, "bob"))
	assert.ErrorIs(t, r.Register(moved, "alice"), ErrTooManyConnections)

	identity, _ := r.Identity(moved)
	assert.Equal(t, "bob", identity, "failed move keeps the previous registration")
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	r := NewRegistry(1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newFakeConn(fmt.Sprintf("c%d", i))
			_ = r.Register(c, fmt.Sprintf("user%d", i%5))
			if i%2 == 0 {
				r.Unregister(c)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Count())
	total := 0
	for i := 0; i < 5; i++ {
		total += len(r.Resolve(fmt.Sprintf("user%d", i)))
	}
	assert.Equal(t, 50, total)
}

func TestRegistry_ShutdownClosesConnections(t *testing.T) {
	r := NewRegistry(0)
	c := newFakeConn("c")
	require.NoError(t, r.Register(c, "alice"))

	require.NoError(t, r.Shutdown(context.Background()))
	assert.True(t, c.closed)
	assert.Zero(t, r.Count())
}

func TestClient_SendAfterClose(t *testing.T) {
	c := NewClient(nil)
	require.NoError(t, c.Send([]byte("x")))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send([]byte("y")), ErrClientClosed)
}

func TestClient_SendBufferFull(t *testing.T) {
	c := NewClient(nil)
	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, c.Send([]byte("x")))
	}
	err := c.Send([]byte("overflow"))
	assert.True(t, errors.Is(err, ErrSendBufferFull))
	assert.NotEmpty(t, c.ID())
}
