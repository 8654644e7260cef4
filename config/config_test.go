package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "GO_ENV", "LOG_LEVEL", "COUPON_POLICY", "COUPON_CODE", "COUPON_AMOUNT",
		"CURRENCY", "IDENTITY_PROVIDER", "STOREFRONT_IDLE_TTL", "CRON_ENABLED", "PUBLIC_BASE_URL"} {
		t.Setenv(key, "")
	}

	env, err := Get()
	require.NoError(t, err)
	assert.Equal(t, 8080, env.PORT)
	assert.Equal(t, "debug", env.LOG_LEVEL)
	assert.Equal(t, "local", env.IDENTITY_PROVIDER)
	assert.Equal(t, "edu24", env.COUPON_CODE)
	assert.Equal(t, "20", env.COUPON_AMOUNT.String())
	assert.Equal(t, "USD", env.CURRENCY)
	assert.Equal(t, 30*time.Minute, env.STOREFRONT_IDLE_TTL)
	assert.True(t, env.CRON_ENABLED)
	assert.Equal(t, "http://localhost:3000", env.PUBLIC_BASE_URL)
}

func TestGetOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GO_ENV", "production")
	t.Setenv("COUPON_POLICY", "Target")
	t.Setenv("COUPON_AMOUNT", "100")
	t.Setenv("STOREFRONT_IDLE_TTL", "5m")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example.com/")

	env, err := Get()
	require.NoError(t, err)
	assert.Equal(t, 9000, env.PORT)
	assert.Equal(t, "info", env.LOG_LEVEL)
	assert.Equal(t, "target", env.COUPON_POLICY)
	assert.Equal(t, "100", env.COUPON_AMOUNT.String())
	assert.Equal(t, 5*time.Minute, env.STOREFRONT_IDLE_TTL)
	assert.Equal(t, "https://shop.example.com", env.PUBLIC_BASE_URL)
}

func TestGetRejectsBadCouponAmount(t *testing.T) {
	t.Setenv("COUPON_AMOUNT", "twenty")
	_, err := Get()
	assert.Error(t, err)
}
