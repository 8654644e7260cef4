package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sahilchouksey/edtech-checkout/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// run executes a job with a timeout and records its outcome
func (m *CronManager) run(jobName string, job func(ctx context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	started := time.Now()
	entry := m.logJobStart(jobName, started)

	message, err := job(ctx)
	if err != nil {
		m.logJobError(entry, jobName, started, err)
		return
	}
	m.logJobComplete(entry, jobName, started, message)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string, started time.Time) *model.CronJobLog {
	m.log.Debug("starting job", zap.String("job", jobName))

	if m.cfg.DB == nil {
		return nil
	}
	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.JobStatusRunning,
		StartedAt: started,
		Metadata:  m.metadata(jobName),
	}
	if err := m.cfg.DB.Create(entry).Error; err != nil {
		m.log.Warn("recording job start failed", zap.String("job", jobName), zap.Error(err))
		return nil
	}
	return entry
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, jobName string, started time.Time, message string) {
	elapsed := time.Since(started)
	m.log.Debug("job completed", zap.String("job", jobName), zap.String("result", message), zap.Duration("took", elapsed))
	m.finish(entry, model.JobStatusCompleted, elapsed, message, "")
}

// logJobError logs failed execution of a cron job
func (m *CronManager) logJobError(entry *model.CronJobLog, jobName string, started time.Time, err error) {
	elapsed := time.Since(started)
	m.log.Error("job failed", zap.String("job", jobName), zap.Error(err), zap.Duration("took", elapsed))
	m.finish(entry, model.JobStatusFailed, elapsed, "", err.Error())
}

func (m *CronManager) finish(entry *model.CronJobLog, status string, elapsed time.Duration, message, errMsg string) {
	if entry == nil || m.cfg.DB == nil {
		return
	}
	now := time.Now()
	err := m.cfg.DB.Model(entry).Updates(map[string]interface{}{
		"status":       status,
		"completed_at": &now,
		"duration":     int(elapsed.Milliseconds()),
		"message":      message,
		"error_msg":    errMsg,
	}).Error
	if err != nil {
		m.log.Warn("recording job result failed", zap.Error(err))
	}
}

// metadata is the job configuration stored with each run
func (m *CronManager) metadata(jobName string) datatypes.JSON {
	meta := map[string]interface{}{}
	switch jobName {
	case jobSweepStorefronts:
		meta["idle_ttl"] = m.cfg.IdleTTL.String()
		meta["schedule"] = scheduleSweep
	case jobCleanupTokens:
		meta["schedule"] = scheduleCleanup
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
