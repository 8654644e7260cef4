package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
	"go.uber.org/zap"
)

// AttemptStore is the cache surface used for lockouts; *cache.RedisCache implements it.
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	IncrementWithin(ctx context.Context, key string, window time.Duration) (int64, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// BruteForceProtection locks out client IPs that keep failing to sign in
type BruteForceProtection struct {
	store AttemptStore
	log   *zap.Logger
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store AttemptStore, log *zap.Logger) *BruteForceProtection {
	if log == nil {
		log = zap.NewNop()
	}
	return &BruteForceProtection{store: store, log: log}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// CheckAndRecordAttempt rejects locked IPs, then records the outcome of the
// wrapped handler: 401 counts as a failure, 2xx clears the counter.
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		ip := c.IP()

		locked, err := b.store.Exists(ctx, lockKey(ip))
		if err != nil {
			// If Redis is down, allow the request
			b.log.Warn("brute force store unavailable", zap.Error(err))
			return c.Next()
		}

		if locked {
			ttl, _ := b.store.TTL(ctx, lockKey(ip))
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		if err := c.Next(); err != nil {
			return err
		}

		switch status := c.Response().StatusCode(); {
		case status == fiber.StatusUnauthorized:
			b.recordFailedAttempt(ctx, ip)
		case status >= 200 && status < 300:
			b.clear(ctx, ip)
		}
		return nil
	}
}

// LockoutFor returns the lock duration after n failures within the window
func LockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

func (b *BruteForceProtection) recordFailedAttempt(ctx context.Context, ip string) {
	attempts, err := b.store.IncrementWithin(ctx, attemptKey(ip), 15*time.Minute)
	if err != nil {
		b.log.Warn("recording failed attempt", zap.Error(err))
		return
	}

	if d := LockoutFor(attempts); d > 0 {
		if err := b.store.Set(ctx, lockKey(ip), "locked", d); err != nil {
			b.log.Warn("applying lockout", zap.Error(err))
			return
		}
		b.log.Info("client locked out", zap.String("ip", ip), zap.Int64("attempts", attempts), zap.Duration("for", d))
	}
}

func (b *BruteForceProtection) clear(ctx context.Context, ip string) {
	if err := b.store.Delete(ctx, attemptKey(ip), lockKey(ip)); err != nil {
		b.log.Warn("clearing attempts", zap.Error(err))
	}
}
