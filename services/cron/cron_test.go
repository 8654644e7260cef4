package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	idle   time.Duration
	closed int
}

func (f *fakeSweeper) Sweep(idle time.Duration) int {
	f.idle = idle
	return f.closed
}

type fakeCleaner struct {
	removed int64
	err     error
}

func (f *fakeCleaner) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return f.removed, f.err
}

func TestSweepIdleStorefronts(t *testing.T) {
	sweeper := &fakeSweeper{closed: 3}
	m := NewCronManager(Config{Storefronts: sweeper, IdleTTL: 30 * time.Minute})

	msg, err := m.SweepIdleStorefronts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3 storefronts closed", msg)
	assert.Equal(t, 30*time.Minute, sweeper.idle)
}

func TestCleanupExpiredTokens(t *testing.T) {
	m := NewCronManager(Config{Storefronts: &fakeSweeper{}, Tokens: &fakeCleaner{removed: 1}})
	msg, err := m.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1 token removed", msg)

	m = NewCronManager(Config{Storefronts: &fakeSweeper{}, Tokens: &fakeCleaner{err: errors.New("db down")}})
	_, err = m.CleanupExpiredTokens(context.Background())
	assert.Error(t, err)
}

func TestRegisterJobs(t *testing.T) {
	m := NewCronManager(Config{Storefronts: &fakeSweeper{}})
	require.NoError(t, m.registerJobs())
	assert.Len(t, m.cron.Entries(), 1)

	m = NewCronManager(Config{Storefronts: &fakeSweeper{}, Tokens: &fakeCleaner{}})
	require.NoError(t, m.registerJobs())
	assert.Len(t, m.cron.Entries(), 2)
}

func TestRunWithoutDatabase(t *testing.T) {
	sweeper := &fakeSweeper{closed: 1}
	m := NewCronManager(Config{Storefronts: sweeper, IdleTTL: time.Minute})

	m.run(jobSweepStorefronts, m.SweepIdleStorefronts)
	assert.Equal(t, time.Minute, sweeper.idle)
}

func TestRunMetadata(t *testing.T) {
	m := NewCronManager(Config{Storefronts: &fakeSweeper{}, IdleTTL: 30 * time.Minute})

	assert.JSONEq(t, `{"idle_ttl":"30m0s","schedule":"0 * * * * *"}`, string(m.metadata(jobSweepStorefronts)))
	assert.JSONEq(t, `{"schedule":"0 0 2 * * *"}`, string(m.metadata(jobCleanupTokens)))
	assert.JSONEq(t, `{}`, string(m.metadata("other")))
}
