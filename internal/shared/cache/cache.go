package cache

import (
	"context"
	"time"
)

// TTL tiers. Pick the tier by how expensive the value is to recompute and
// how stale it may safely become.
const (
	TTLMicro  = 60 * time.Second
	TTLShort  = 5 * time.Minute
	TTLMedium = 30 * time.Minute
	TTLLong   = time.Hour
	TTLDay    = 24 * time.Hour
)

// Factory computes a value when the cache misses.
type Factory func(ctx context.Context) (any, error)

//go:generate mockgen -source=cache.go -destination=mock/cache_mock.go -package=mock
type Cache interface {
	// Get unmarshals the cached value into dest. Returns false on miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// GetOrSet returns the cached value, or runs factory and caches the
	// result. A cache-read failure falls back to the factory; a cache-write
	// failure is logged and swallowed. Concurrent callers for the same key
	// share one factory execution.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, factory Factory, dest any) error
}
