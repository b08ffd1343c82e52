package common

import (
	"context"
	"time"
)

// CacheInterface defines the contract for cache implementations
type CacheInterface interface {
	// Set stores a value in cache with the given key and duration
	Set(ctx context.Context, key string, value interface{}, duration time.Duration)

	// Get retrieves a value from cache by key
	// Returns the value and true if found, nil and false otherwise
	Get(ctx context.Context, key string) (interface{}, bool)

	// Delete removes a value from cache by key
	Delete(ctx context.Context, key string)

	// GetOrSet retrieves a value from cache, or loads it using the loader function if not found
	GetOrSet(ctx context.Context, key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}

// CooldownLimiter enforces "at most once per window" per key.
type CooldownLimiter interface {
	// Acquire starts a cooldown for key. When one is already running it returns
	// false and the time left until the key may be acquired again.
	Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}
