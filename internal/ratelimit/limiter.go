// Package ratelimit throttles password-bearing signaling attempts
// (join-room, has-room-permission) per connection. The redis backend
// shares the window across restarts; the in-memory backend is the
// default for single-box deployments and tests.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MemoryLimiter is a sliding-window limiter over an in-process history
// of attempt timestamps.
type MemoryLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewMemoryLimiter(limit int, interval time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.interval)

	attempts := l.history[key]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= l.limit {
		l.history[key] = fresh
		return false
	}

	l.history[key] = append(fresh, now)
	return true
}

// Forget drops a key's history, typically on disconnect.
func (l *MemoryLimiter) Forget(key string) {
	l.mu.Lock()
	delete(l.history, key)
	l.mu.Unlock()
}

// RedisLimiter counts attempts in a fixed window keyed per connection.
// Redis errors fail open: throttling is a hardening measure, not a
// correctness requirement.
type RedisLimiter struct {
	client   *redis.Client
	limit    int
	interval time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, interval time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, interval: interval}
}

func (l *RedisLimiter) Allow(key string) bool {
	ctx := context.Background()
	k := "ratelimit:" + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		log.Warn().Err(err).Str("module", "ratelimit").Msg("redis incr failed, allowing")
		return true
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.interval).Err(); err != nil {
			log.Warn().Err(err).Str("module", "ratelimit").Msg("redis expire failed")
		}
	}
	return n <= int64(l.limit)
}

// Forget is a no-op: redis entries expire on their own.
func (l *RedisLimiter) Forget(string) {}
