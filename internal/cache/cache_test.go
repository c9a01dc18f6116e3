package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = client.Close()
		SetClient(nil)
		mr.Close()
	})
	return mr
}

type statsDoc struct {
	Likes int `json:"likes"`
}

func TestAside_FetchesOnceThenHits(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *statsDoc) func() error {
		return func() error {
			calls++
			dest.Likes = 7
			return nil
		}
	}

	var first statsDoc
	require.NoError(t, Aside(ctx, StatsKey("c1"), &first, StatsTTL, fetch(&first)))
	assert.Equal(t, 7, first.Likes)
	assert.True(t, mr.Exists("content:c1:stats"))

	var second statsDoc
	require.NoError(t, Aside(ctx, StatsKey("c1"), &second, StatsTTL, fetch(&second)))
	assert.Equal(t, 7, second.Likes)
	assert.Equal(t, 1, calls)

	mr.FastForward(StatsTTL + time.Second)
	var third statsDoc
	require.NoError(t, Aside(ctx, StatsKey("c1"), &third, StatsTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_InvalidateForcesRefetch(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	calls := 0
	var doc statsDoc
	fetch := func() error { calls++; return nil }

	require.NoError(t, Aside(ctx, StatsKey("c1"), &doc, StatsTTL, fetch))
	InvalidateStats(ctx, "c1")
	require.NoError(t, Aside(ctx, StatsKey("c1"), &doc, StatsTTL, fetch))
	assert.Equal(t, 2, calls)
}

func TestAside_WithoutRedisAlwaysFetches(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	fetchErr := errors.New("db down")
	var doc statsDoc
	err := Aside(ctx, StatsKey("c1"), &doc, StatsTTL, func() error { return fetchErr })
	assert.ErrorIs(t, err, fetchErr)

	err = Aside(ctx, StatsKey("c1"), &doc, StatsTTL, func() error { doc.Likes = 1; return nil })
	assert.NoError(t, err)
	assert.Equal(t, 1, doc.Likes)
}

func TestTickets_SingleUse(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, StoreTicket(ctx, "t-1", "alice", WSTicketTTL))
	assert.Equal(t, "alice", func() string { v, _ := mr.Get("ws_ticket:t-1"); return v }())

	identity, err := ConsumeTicket(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)

	identity, err = ConsumeTicket(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, identity, "ticket is gone after first use")
	assert.False(t, mr.Exists("ws_ticket:t-1"))
}

func TestTickets_Expire(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, StoreTicket(ctx, "t-2", "bob", WSTicketTTL))
	mr.FastForward(WSTicketTTL + time.Second)

	identity, err := ConsumeTicket(ctx, "t-2")
	require.NoError(t, err)
	assert.Empty(t, identity)
}

func TestTickets_NoRedis(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	assert.ErrorIs(t, StoreTicket(ctx, "t", "alice", time.Second), ErrUnavailable)
	_, err := ConsumeTicket(ctx, "t")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestInitRedis_UnreachableDisablesCache(t *testing.T) {
	InitRedis("redis://127.0.0.1:1/0")
	assert.Nil(t, GetClient())

	InitRedis("")
	assert.Nil(t, GetClient())
}
