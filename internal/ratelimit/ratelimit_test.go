package ratelimit

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return s, rdb
}

func TestRedisLimiter_AllowsBurstThenRejects(t *testing.T) {
	_, rdb := newMiniRedis(t)
	now := time.UnixMilli(1_700_000_000_000)
	limiter := NewRedisLimiter(rdb, "test", 1, 3)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d within burst", i+1)
	}

	allowed, wait, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, wait)

	allowed, _, err = limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, allowed, "other keys have their own bucket")
}

func TestRedisLimiter_Refills(t *testing.T) {
	_, rdb := newMiniRedis(t)
	now := time.UnixMilli(1_700_000_000_000)
	limiter := NewRedisLimiter(rdb, "test", 2, 1)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, allowed)

	now = now.Add(500 * time.Millisecond)
	allowed, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiter_StoresBucketUnderPrefix(t *testing.T) {
	_, rdb := newMiniRedis(t)
	limiter := NewRedisLimiter(rdb, "", 10, 2)

	_, _, err := limiter.Allow(context.Background(), "login:1.2.3.4")
	require.NoError(t, err)

	tokensStr, err := rdb.HGet(context.Background(), "storefront:ratelimit:login:1.2.3.4", "tokens").Result()
	require.NoError(t, err)
	tokens, err := strconv.ParseFloat(tokensStr, 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, tokens, 0.1)
}

func TestRedisLimiter_Disabled(t *testing.T) {
	limiter := NewRedisLimiter(nil, "test", 0, 0)

	allowed, _, err := limiter.Allow(context.Background(), "k")

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLimiter_FallbackWhenRedisDown(t *testing.T) {
	s, rdb := newMiniRedis(t)
	s.Close()

	limiter := NewRedisLimiter(rdb, "test", 1, 1).WithFallback(NewLocalLimiter(1, 1))
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisLimiter_ErrorWithoutFallback(t *testing.T) {
	s, rdb := newMiniRedis(t)
	s.Close()

	_, _, err := NewRedisLimiter(rdb, "test", 1, 1).Allow(context.Background(), "k")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ratelimit eval")
}

func TestLocalLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewLocalLimiter(1, 2)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, wait, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, wait)

	now = now.Add(time.Second)
	allowed, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed, "rejected requests do not consume tokens")
}

func TestLocalLimiter_PrunesIdleKeys(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewLocalLimiter(1, 1)
	limiter.now = func() time.Time { return now }

	_, _, _ = limiter.Allow(context.Background(), "old")
	now = now.Add(11 * time.Minute)
	_, _, _ = limiter.Allow(context.Background(), "new")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.limiters, "old")
	assert.Contains(t, limiter.limiters, "new")
}
