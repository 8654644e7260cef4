package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper closes storefronts idle for longer than the given duration
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// TokenCleaner removes expired blacklist entries
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type Config struct {
	Storefronts Sweeper
	IdleTTL     time.Duration
	Tokens      TokenCleaner // optional
	DB          *gorm.DB     // optional, run history goes to cron_job_logs
	Logger      *zap.Logger
}

const (
	jobSweepStorefronts = "sweep_idle_storefronts"
	jobCleanupTokens    = "cleanup_expired_tokens"

	scheduleSweep   = "0 * * * * *"
	scheduleCleanup = "0 0 2 * * *"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	cfg  Config
	log  *zap.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(cfg Config) *CronManager {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DiscardLogger)))

	return &CronManager{
		cron: c,
		cfg:  cfg,
		log:  log.Named("cron"),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()
	m.log.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every minute: unmount idle storefronts
	_, err := m.cron.AddFunc(scheduleSweep, func() {
		m.run(jobSweepStorefronts, m.SweepIdleStorefronts)
	})
	if err != nil {
		return err
	}

	// 2. Daily at 2 AM: drop expired token blacklist entries
	if m.cfg.Tokens != nil {
		_, err = m.cron.AddFunc(scheduleCleanup, func() {
			m.run(jobCleanupTokens, m.CleanupExpiredTokens)
		})
		if err != nil {
			return err
		}
	}

	return nil
}
