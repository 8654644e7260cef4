package local

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/edtech-checkout/utils/cache"
)

// RedisLimiter applies progressive lockouts to accounts with repeated
// wrong passwords.
type RedisLimiter struct {
	cache  *cache.RedisCache
	window time.Duration
}

func NewRedisLimiter(c *cache.RedisCache) *RedisLimiter {
	return &RedisLimiter{cache: c, window: 15 * time.Minute}
}

func attemptKey(key string) string { return fmt.Sprintf("identity:attempts:%s", key) }
func lockKey(key string) string    { return fmt.Sprintf("identity:lock:%s", key) }

// LockoutFor returns how long an account is locked after n failures within the window.
func LockoutFor(n int64) time.Duration {
	switch {
	case n >= 25:
		return 24 * time.Hour
	case n >= 10:
		return time.Hour
	case n >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

func (l *RedisLimiter) Locked(ctx context.Context, key string) (bool, error) {
	return l.cache.Exists(ctx, lockKey(key))
}

func (l *RedisLimiter) Failed(ctx context.Context, key string) error {
	n, err := l.cache.IncrementWithin(ctx, attemptKey(key), l.window)
	if err != nil {
		return err
	}
	if d := LockoutFor(n); d > 0 {
		return l.cache.Set(ctx, lockKey(key), "locked", d)
	}
	return nil
}

func (l *RedisLimiter) Succeeded(ctx context.Context, key string) error {
	return l.cache.Delete(ctx, attemptKey(key), lockKey(key))
}
