package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per key in fixed windows stored in redis.
type RateLimiter struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		redis: client,
		now:   time.Now,
	}
}

// Allow records one request for key and reports whether it is within limit
// for the current window, together with the count so far.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	seconds := int64(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, rl.now().Unix()/seconds)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(incr.Val())
	return count <= limit, count, nil
}
