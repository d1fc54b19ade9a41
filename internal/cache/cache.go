// Package cache provides the TTL memoization layer for leaderboard pages.
// It is a pure cache: safe to drop, never a source of truth, and the ranking
// path must produce identical results with it disabled.
package cache

import (
	"context"
	"time"
)

// Cache is a string-keyed TTL cache.
type Cache[V any] interface {
	// Get returns the live entry for key, or ok=false on miss or expiry.
	Get(ctx context.Context, key string) (V, bool)
	// GetStale returns the entry for key even when its TTL has elapsed.
	// Used as a graceful fallback when recomputation times out.
	GetStale(ctx context.Context, key string) (V, bool)
	Put(ctx context.Context, key string, value V, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
	InvalidateAll(ctx context.Context)
	// Len reports the number of stored entries, expired or not.
	Len() int
}
