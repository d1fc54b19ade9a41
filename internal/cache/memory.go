package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is the in-process Cache implementation: a mutex-guarded map with
// lazy expiry. InvalidateAll swaps the map wholesale, so concurrent readers
// of the old map finish against a consistent snapshot.
//
// Expired entries linger so GetStale can serve them; an entry whose key is
// never Put again is only reclaimed by Invalidate or InvalidateAll, so the
// periodic sweep job is the de facto garbage collector.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	clock   func() time.Time
}

var _ Cache[any] = (*Memory[any])(nil)

// NewMemory creates an empty in-memory cache.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{
		entries: make(map[string]entry[V]),
		clock:   time.Now,
	}
}

// NewMemoryWithClock creates a cache with an injected clock, for tests.
func NewMemoryWithClock[V any](clock func() time.Time) *Memory[V] {
	return &Memory[V]{
		entries: make(map[string]entry[V]),
		clock:   clock,
	}
}

func (c *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.clock().After(e.expiresAt) {
		// Expired entries stay in the map so GetStale can still serve them;
		// Put and the invalidation paths reclaim the space.
		return zero, false
	}
	return e.value, true
}

func (c *Memory[V]) GetStale(_ context.Context, key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Memory[V]) Put(_ context.Context, key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.clock().Add(ttl),
	}
}

func (c *Memory[V]) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Memory[V]) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

func (c *Memory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
