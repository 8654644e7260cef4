package cron

import (
	"context"
	"strconv"
)

// SweepIdleStorefronts closes storefronts nobody used within the idle TTL
func (m *CronManager) SweepIdleStorefronts(ctx context.Context) (string, error) {
	closed := m.cfg.Storefronts.Sweep(m.cfg.IdleTTL)
	return pluralize(closed, "storefront") + " closed", nil
}

// CleanupExpiredTokens deletes blacklist entries past their expiry
func (m *CronManager) CleanupExpiredTokens(ctx context.Context) (string, error) {
	n, err := m.cfg.Tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return "", err
	}
	return pluralize(int(n), "token") + " removed", nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
