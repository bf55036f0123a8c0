// Package ratelimit implements a Redis backed fixed-window rate limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
)

// RedisLimiter counts requests per key in fixed windows using INCR with a
// TTL set on first increment.
type RedisLimiter struct {
	client *redis.Client
	log    *zap.Logger
}

var _ interfaces.RateLimiter = (*RedisLimiter)(nil)

// NewRedisLimiter returns a limiter backed by client.
func NewRedisLimiter(client *redis.Client, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, log: log}
}

// Allow increments the window counter for key and reports whether the count
// is within limit. Redis failures open the gate so an unavailable limiter
// never locks users out.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request",
			zap.String("key", key), zap.Error(err))
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			l.log.Warn("failed to set rate limit window", zap.String("key", key), zap.Error(err))
		}
	}
	return count <= int64(limit), nil
}
