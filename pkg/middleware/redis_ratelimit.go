package middleware

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter is a fixed-window counter shared by every instance using the same Redis
type RedisLimiter struct {
	client *redis.Client
	config RateLimitConfig
	prefix string
}

// NewRedisLimiter creates a Redis-backed limiter. Keys are stored under prefix.
func NewRedisLimiter(client *redis.Client, config RateLimitConfig, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, config: config, prefix: prefix}
}

func (l *RedisLimiter) Config() RateLimitConfig {
	return l.config
}

func (l *RedisLimiter) Backend() string {
	return "redis"
}

// Allow counts the request in the current window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr failed: %w", err)
	}

	// The first request of a window starts its expiry
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.config.WindowDuration).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire failed: %w", err)
		}
	}

	limit := int64(l.config.RequestsPerWindow + l.config.BurstSize)
	if count > limit {
		return false, 0, nil
	}
	return true, int(limit - count), nil
}

// Reset clears the counter for key
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, fmt.Sprintf("%s:%s", l.prefix, key)).Err()
}
