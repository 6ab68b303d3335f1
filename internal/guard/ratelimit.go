package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guildcasino/casino/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request under key is allowed.
type Limiter interface {
	Check(ctx context.Context, key string) domain.GuardResult
}

// RateLimiter implements a sliding window rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Check returns a GuardResult indicating whether the key is within rate limits.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	// Remove expired entries
	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return limited(rl.limit, rl.window)
	}

	rl.windows[key] = append(valid, now)
	return domain.GuardResult{Allowed: true}
}

func limited(limit int, window time.Duration) domain.GuardResult {
	return domain.GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", limit, window),
		Guard:   "rate_limiter",
	}
}

// RedisRateLimiter is a fixed-window counter shared by every API replica.
// A Redis error fails open.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisRateLimiter counts requests in Redis under "ratelimit:<key>".
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

func (rl *RedisRateLimiter) Check(ctx context.Context, key string) domain.GuardResult {
	k := rl.prefix + key
	count, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		return domain.GuardResult{Allowed: true}
	}
	if count == 1 {
		rl.client.Expire(ctx, k, rl.window)
	}
	if count > int64(rl.limit) {
		return limited(rl.limit, rl.window)
	}
	return domain.GuardResult{Allowed: true}
}
