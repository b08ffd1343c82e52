package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/logging"

	"github.com/redis/go-redis/v9"
)

// RedisCacheService implements CacheInterface and CooldownLimiter on a shared Redis
type RedisCacheService struct {
	client *redis.Client
}

var (
	_ CacheInterface  = (*RedisCacheService)(nil)
	_ CooldownLimiter = (*RedisCacheService)(nil)
)

func NewRedisCacheService(client *redis.Client) *RedisCacheService {
	return &RedisCacheService{client: client}
}

// Set stores a value in Redis with the given key and duration
func (r *RedisCacheService) Set(ctx context.Context, key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Redis cache: failed to marshal value", "key", key, "error", err)
		return
	}

	if err := r.client.Set(ctx, key, data, duration).Err(); err != nil {
		logging.Warn("Redis cache: failed to set key", "key", key, "error", err)
	}
}

// Get retrieves a value from Redis by key. Values come back JSON-decoded, so a
// stored string is returned as a string.
func (r *RedisCacheService) Get(ctx context.Context, key string) (interface{}, bool) {
	data, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Redis cache: failed to get key", "key", key, "error", err)
		return nil, false
	}

	var result interface{}
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		logging.Warn("Redis cache: failed to unmarshal value", "key", key, "error", err)
		return nil, false
	}

	return result, true
}

func (r *RedisCacheService) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Warn("Redis cache: failed to delete key", "key", key, "error", err)
	}
}

// GetOrSet retrieves a value from cache, or loads it using the loader function if not found
func (r *RedisCacheService) GetOrSet(
	ctx context.Context,
	key string,
	duration time.Duration,
	loader func() (any, error),
) (interface{}, error) {
	if val, found := r.Get(ctx, key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	r.Set(ctx, key, val, duration)
	return val, nil
}

// Acquire starts the cooldown with SET NX PX; the remaining wait of a running
// cooldown is its PTTL.
func (r *RedisCacheService) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	ok, err := r.client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return false, 0, Unavailable(constants.ErrCodeCacheUnavailable, "acquire cooldown", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, Unavailable(constants.ErrCodeCacheUnavailable, "read cooldown", err)
	}
	if ttl < 0 {
		// key vanished or has no expiry; fall back to a full window
		ttl = window
	}
	return false, ttl, nil
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}

// Ping is used by the health check.
func (r *RedisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// CooldownKey builds the limiter key for a user.
func CooldownKey(prefix constants.CachePrefix, userID string) string {
	return fmt.Sprintf("%s%s", prefix, userID)
}
