package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate:"

// RedisLimiter implements the fixed-window counter against Redis. Keys are
// prefixed "rate:" so they never collide with deployment IDs sharing the
// same store.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(redisURL string, limit int, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisLimiter{client: client, limit: limit, window: window}, nil
}

func NewRedisLimiterWithClient(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	rkey := keyPrefix + key

	// Admission check first so over-limit requests are never charged.
	current, err := l.client.Get(ctx, rkey).Int()
	if err != nil && err != redis.Nil {
		return false, 0, err
	}

	if current >= l.limit {
		return false, current, nil
	}

	count, err := l.client.Incr(ctx, rkey).Result()
	if err != nil {
		return false, current, err
	}

	// First hit in the window starts its TTL clock; the key then expires on
	// its own, which is the only way a window ever resets.
	if count == 1 {
		if err := l.client.Expire(ctx, rkey, l.window).Err(); err != nil {
			return true, int(count), err
		}
	}

	return true, int(count), nil
}

func (l *RedisLimiter) Limit() int {
	return l.limit
}

func (l *RedisLimiter) Window() time.Duration {
	return l.window
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
