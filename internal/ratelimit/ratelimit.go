// Package ratelimit throttles requests per client key with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key may proceed now.
// When it may not, retryAfter is the wait until a token is available.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 or burst <= 0 then
  return {1, 0, burst}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
tokens = math.min(burst, tokens + (delta * rate) / 1000.0)

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) * 1000.0 / rate)
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms}
`

// RedisLimiter keeps one bucket per key in redis so every API instance
// shares the same budget.
type RedisLimiter struct {
	rdb      redis.Scripter
	prefix   string
	rate     float64
	burst    float64
	script   *redis.Script
	fallback Limiter
	now      func() time.Time
}

// NewRedisLimiter creates a limiter refilling rps tokens per second up to burst.
func NewRedisLimiter(rdb redis.Scripter, prefix string, rps float64, burst int) *RedisLimiter {
	if prefix == "" {
		prefix = "storefront:ratelimit"
	}
	return &RedisLimiter{
		rdb:    rdb,
		prefix: prefix,
		rate:   rps,
		burst:  float64(burst),
		script: redis.NewScript(tokenBucketLua),
		now:    time.Now,
	}
}

// WithFallback sets the limiter consulted while redis is unreachable.
func (r *RedisLimiter) WithFallback(l Limiter) *RedisLimiter {
	r.fallback = l
	return r
}

// Allow takes one token from the bucket of key.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if r.rate <= 0 || r.burst <= 0 {
		return true, 0, nil
	}

	res, err := r.script.Run(ctx, r.rdb, []string{r.prefix + ":" + key}, r.rate, r.burst, r.now().UnixMilli(), 1).Result()
	if err != nil {
		if r.fallback != nil {
			log.Warn().Err(err).Msg("redis rate limit unavailable, using local limiter")
			return r.fallback.Allow(ctx, key)
		}
		return false, 0, fmt.Errorf("ratelimit eval: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("ratelimit invalid result")
	}
	allowed := toInt64(values[0]) == 1
	wait := time.Duration(toInt64(values[1])) * time.Millisecond
	return allowed, wait, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

// LocalLimiter keeps in-process buckets. Idle buckets are dropped after ttl.
type LocalLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*localEntry
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastPrune time.Time
	now       func() time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates an in-process limiter with rps tokens per second up to burst.
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	return &LocalLimiter{
		limiters: make(map[string]*localEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

// Allow takes one token from the bucket of key without blocking.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 || l.burst <= 0 {
		return true, 0, nil
	}

	now := l.now()
	lim := l.get(key, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, 0, nil
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

func (l *LocalLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > l.ttl {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.ttl {
				delete(l.limiters, k)
			}
		}
		l.lastPrune = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}
