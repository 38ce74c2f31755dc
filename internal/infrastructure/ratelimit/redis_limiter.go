package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "ratelimit:"
	redisTimeout = 300 * time.Millisecond
)

// RedisLimiter is a fixed-window counter shared by every API instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	now := l.now()
	start := now.Truncate(l.window)
	counterKey := windowKey(key, start)

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("can't increment rate counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("can't set counter expiration: %w", err)
		}
	}

	if int(count) > l.limit {
		return false, start.Add(l.window).Sub(now), nil
	}
	return true, 0, nil
}

// windowKey names the counter for key in the window starting at start.
func windowKey(key string, start time.Time) string {
	return keyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10)
}
