// Package data provides storage-backed adapters for the dashboard.
// The dashboard itself is stateless; the only stored state is the
// fixed-window login attempt counter.
package data

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultThrottleLimit is the number of login attempts allowed per window.
	DefaultThrottleLimit = 10
	// DefaultThrottleWindow is the fixed window length.
	DefaultThrottleWindow = time.Minute
)

// RedisThrottle is a fixed-window attempt counter backed by Redis, so
// counters are shared across dashboard replicas and survive restarts.
type RedisThrottle struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// RedisThrottleOptions groups construction parameters for RedisThrottle.
type RedisThrottleOptions struct {
	Client redis.UniversalClient
	Prefix string        // Optional: key prefix (default "login_attempts:")
	Limit  int           // Optional: attempts per window (default 10)
	Window time.Duration // Optional: window length (default 1m)
}

// NewRedisThrottle creates a Redis-backed login throttle.
func NewRedisThrottle(opts RedisThrottleOptions) *RedisThrottle {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "login_attempts:"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultThrottleLimit
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	return &RedisThrottle{
		client: opts.Client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow records an attempt for key and reports whether it is within budget.
// The window TTL is set when the counter is first created.
func (r *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := r.prefix + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("throttle incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return false, fmt.Errorf("throttle expire: %w", err)
		}
	}
	return count <= int64(r.limit), nil
}

// Reset clears the counter for key.
func (r *RedisThrottle) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
