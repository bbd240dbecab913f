package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter: one Redis key per client and window.
type RateLimiter struct {
	c   *redis.Client
	now func() time.Time
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{
		c:   redis.NewClient(&redis.Options{Addr: addr}),
		now: time.Now,
	}
}

// Allow делает INCR по ключу и ставит TTL, если ключ создаётся впервые.
// Возвращает (allowed, currentCount).
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= limit, n, nil
}

// WindowKey builds the counter key for client in the window containing now.
func (rl *RateLimiter) WindowKey(prefix, client string, window time.Duration) string {
	slot := rl.now().Truncate(window).Unix()
	return prefix + ":" + client + ":" + time.Unix(slot, 0).UTC().Format("200601021504")
}

func (rl *RateLimiter) Ping(ctx context.Context) error {
	if err := rl.c.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
