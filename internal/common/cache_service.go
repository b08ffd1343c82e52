package common

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheService is the in-process cache. It suits a single dashboard instance;
// multi-instance deployments use RedisCacheService instead.
type CacheService struct {
	cache *cache.Cache
}

var (
	_ CacheInterface  = (*CacheService)(nil)
	_ CooldownLimiter = (*CacheService)(nil)
)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultExpiration, cleanUpInterval)}
}

func (cs *CacheService) Set(_ context.Context, key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

func (cs *CacheService) Get(_ context.Context, key string) (interface{}, bool) {
	return cs.cache.Get(key)
}

func (cs *CacheService) Delete(_ context.Context, key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	duration time.Duration,
	loader func() (any, error)) (interface{}, error) {
	if val, found := cs.Get(ctx, key); found {
		return val, nil
	}

	val, err := loader()
	if err != nil {
		return nil, err
	}

	cs.Set(ctx, key, val, duration)
	return val, nil
}

// Acquire uses cache.Add, which fails while an unexpired entry exists, so two
// concurrent callers cannot both start the same cooldown.
func (cs *CacheService) Acquire(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	if err := cs.cache.Add(key, struct{}{}, window); err == nil {
		return true, 0, nil
	}

	_, expiresAt, found := cs.cache.GetWithExpiration(key)
	if !found {
		// expired between Add and the lookup
		return cs.cache.Add(key, struct{}{}, window) == nil, 0, nil
	}
	return false, time.Until(expiresAt), nil
}

// Close closes the cache (no-op for in-memory cache)
func (cs *CacheService) Close() error {
	return nil
}
