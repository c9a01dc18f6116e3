// Package ratelimit implements an in-process sliding window log limiter.
//
// One Limiter serves every throttled action; callers choose the key (client
// IP, user, user plus resource) and the window/max pair per call.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"dajtovon/internal/observability"
)

// DefaultIdleMultiple is how many of the largest windows a bucket may sit idle
// before the sweeper evicts it.
const DefaultIdleMultiple = 2

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the oldest counted request leaves the window.
	// Zero when Allowed.
	RetryAfter time.Duration
	// Remaining is how many more requests fit in the current window.
	Remaining int
}

// Policy names a window/max pair so handlers can share it.
type Policy struct {
	Name   string
	Window time.Duration
	Max    int
}

type bucket struct {
	// hits is ordered oldest first.
	hits []time.Time
}

// Limiter tracks allowed request timestamps per key.
type Limiter struct {
	mu            sync.Mutex
	buckets       map[string]*bucket
	now           func() time.Time
	idleMultiple  int
	largestWindow time.Duration
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIdleMultiple sets the idle eviction multiple. Values below 1 are raised to 1.
func WithIdleMultiple(n int) Option {
	return func(l *Limiter) {
		if n < 1 {
			n = 1
		}
		l.idleMultiple = n
	}
}

// New creates an empty Limiter.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		buckets:      make(map[string]*bucket),
		now:          time.Now,
		idleMultiple: DefaultIdleMultiple,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request for key if fewer than max requests were allowed in
// the trailing window. Timestamps strictly older than now-window are pruned
// first. A rejected request is not recorded.
func (l *Limiter) Allow(key string, window time.Duration, max int) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if window > l.largestWindow {
		l.largestWindow = window
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		l.buckets[key] = b
		observability.RateLimitBuckets.Set(float64(len(l.buckets)))
	}

	cutoff := now.Add(-window)
	expired := 0
	for expired < len(b.hits) && b.hits[expired].Before(cutoff) {
		expired++
	}
	if expired > 0 {
		b.hits = append(b.hits[:0], b.hits[expired:]...)
	}

	if len(b.hits) < max {
		b.hits = append(b.hits, now)
		return Decision{Allowed: true, Remaining: max - len(b.hits)}
	}

	if len(b.hits) == 0 {
		// max <= 0 never admits anything.
		return Decision{RetryAfter: window}
	}

	retryAfter := window - now.Sub(b.hits[0])
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{RetryAfter: retryAfter}
}

// AllowPolicy is Allow with the window and max taken from p.
func (l *Limiter) AllowPolicy(p Policy, key string) Decision {
	return l.Allow(p.Name+":"+key, p.Window, p.Max)
}

// Sweep evicts buckets whose newest entry is older than IdleMultiple times the
// largest window ever passed to Allow. Such a bucket holds no entry that any
// caller's window could still count. Returns the number of evicted buckets.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	idle := l.largestWindow * time.Duration(l.idleMultiple)
	evicted := 0
	for key, b := range l.buckets {
		if len(b.hits) == 0 || now.Sub(b.hits[len(b.hits)-1]) > idle {
			delete(l.buckets, key)
			evicted++
		}
	}
	if evicted > 0 {
		observability.RateLimitEvictions.Add(float64(evicted))
		observability.RateLimitBuckets.Set(float64(len(l.buckets)))
	}
	return evicted
}

// StartSweeper runs Sweep every interval until ctx is done.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					observability.GlobalLogger.DebugContext(ctx, "rate limit buckets evicted", "count", n)
				}
			}
		}
	}()
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
