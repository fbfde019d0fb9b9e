package jobs

import (
	"context"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/storage"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// RetentionJob removes payloads older than the retention window
type RetentionJob struct {
	store  *storage.Store
	days   int
	loc    *time.Location
	logger *logger.Logger
	now    func() time.Time
}

// NewRetentionJob creates a retention job keeping the last days calendar days
func NewRetentionJob(store *storage.Store, days int, loc *time.Location, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		store:  store,
		days:   days,
		loc:    loc,
		logger: log,
		now:    time.Now,
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "payload_retention"
}

// Schedule returns the cron schedule (03:00 daily)
func (j *RetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Cutoff returns the oldest date that is kept
func (j *RetentionJob) Cutoff() string {
	return j.now().In(j.loc).AddDate(0, 0, -j.days).Format(contracts.DateLayout)
}

// Run deletes every payload dated before Cutoff
func (j *RetentionJob) Run(ctx context.Context) error {
	if j.days <= 0 {
		return nil
	}

	cutoff := j.Cutoff()
	removed := 0

	for _, t := range contracts.PayloadTypes {
		dates, err := j.store.ListDates(t)
		if err != nil {
			return err
		}
		for _, d := range dates {
			if d >= cutoff {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := j.store.Delete(ctx, t, d)
			if err != nil {
				return err
			}
			if ok {
				removed++
			}
		}
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff,
		}).Info("Payload retention completed")
	}

	return nil
}
