package local

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sahilchouksey/edtech-checkout/model"
	"github.com/sahilchouksey/edtech-checkout/utils/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// These tests need real services; they are skipped unless TEST_DATABASE_DSN
// or TEST_REDIS_URL is set.

func TestGormUsersIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.JWTTokenBlacklist{}))

	ctx := context.Background()
	store := NewGormUsers(db)
	email := uuid.NewString() + "@example.com"
	t.Cleanup(func() { db.Unscoped().Where("email = ?", email).Delete(&model.User{}) })

	user := &model.User{Email: email, PasswordHash: "x"}
	require.NoError(t, store.Create(ctx, user))
	assert.NotZero(t, user.ID)

	assert.ErrorIs(t, store.Create(ctx, &model.User{Email: email, PasswordHash: "y"}), ErrEmailTaken)

	found, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, email, found.Email)

	_, err = store.FindByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRedisLimiterIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := cache.NewRedisCache(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	limiter := NewRedisLimiter(c)
	key := uuid.NewString()
	t.Cleanup(func() { limiter.Succeeded(ctx, key) })

	for i := 0; i < 4; i++ {
		require.NoError(t, limiter.Failed(ctx, key))
	}
	locked, err := limiter.Locked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, limiter.Failed(ctx, key))
	locked, err = limiter.Locked(ctx, key)
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, limiter.Succeeded(ctx, key))
	locked, err = limiter.Locked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)
}
