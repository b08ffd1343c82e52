package common

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_AcquireWithinWindow(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	ctx := context.Background()

	ok, wait, err := cs.Acquire(ctx, "guild_list_cooldown:u1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, wait)

	ok, wait, err = cs.Acquire(ctx, "guild_list_cooldown:u1", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, wait, 4*time.Second)
	assert.LessOrEqual(t, wait, 5*time.Second)

	// other users are not affected
	ok, _, err = cs.Acquire(ctx, "guild_list_cooldown:u2", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheService_AcquireAfterWindow(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	ctx := context.Background()

	ok, _, _ := cs.Acquire(ctx, "k", 20*time.Millisecond)
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	ok, _, err := cs.Acquire(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheService_AcquireConcurrent(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	var granted int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := cs.Acquire(context.Background(), "k", time.Second); ok {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted)
}

func TestCacheService_GetOrSet(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	ctx := context.Background()
	calls := 0
	loader := func() (any, error) {
		calls++
		return "12345", nil
	}

	v, err := cs.GetOrSet(ctx, "user_slug:alice", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "12345", v)

	v, err = cs.GetOrSet(ctx, "user_slug:alice", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "12345", v)
	assert.Equal(t, 1, calls)

	_, err = cs.GetOrSet(ctx, "user_slug:bob", time.Minute, func() (any, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	_, found := cs.Get(ctx, "user_slug:bob")
	assert.False(t, found)
}
