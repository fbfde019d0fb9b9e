package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/pipeline"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// DefaultDailySchedule is 15:30 in the exchange timezone (with seconds)
const DefaultDailySchedule = "0 30 15 * * *"

// PipelineRunner runs the full pipeline for a date
type PipelineRunner interface {
	Run(ctx context.Context, date time.Time, opts pipeline.Options) (*contracts.PipelineResult, error)
}

// TradingDays decides whether a date is a session
type TradingDays interface {
	IsTradingDay(date time.Time) bool
}

// DailyPipelineJob runs collect → quality → analyze → report after the close
// ⭐ SSOT: 일일 파이프라인 스케줄은 이 Job에서만
type DailyPipelineJob struct {
	runner   PipelineRunner
	calendar TradingDays
	loc      *time.Location
	schedule string
	opts     pipeline.Options
	logger   *logger.Logger
	now      func() time.Time
}

// NewDailyPipelineJob creates the daily job. An empty schedule uses DefaultDailySchedule.
func NewDailyPipelineJob(runner PipelineRunner, cal TradingDays, loc *time.Location, schedule string, opts pipeline.Options, log *logger.Logger) *DailyPipelineJob {
	if schedule == "" {
		schedule = DefaultDailySchedule
	}
	return &DailyPipelineJob{
		runner:   runner,
		calendar: cal,
		loc:      loc,
		schedule: schedule,
		opts:     opts,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *DailyPipelineJob) Name() string {
	return "daily_pipeline"
}

// Schedule returns the cron schedule
func (j *DailyPipelineJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline for today's exchange date. Non-trading days are skipped.
func (j *DailyPipelineJob) Run(ctx context.Context) error {
	n := j.now().In(j.loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, j.loc)
	day := today.Format(contracts.DateLayout)

	if !j.calendar.IsTradingDay(today) {
		j.logger.WithField("date", day).Info("Not a trading day, skipping scheduled run")
		return nil
	}

	j.logger.WithField("date", day).Info("Starting scheduled pipeline run")

	result, err := j.runner.Run(ctx, today, j.opts)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", day, err)
	}

	fields := map[string]interface{}{
		"date":      day,
		"completed": len(result.Completed),
		"basis":     len(result.Basis),
	}
	if result.Quality != nil {
		fields["quality"] = result.Quality.OverallScore
		fields["passed"] = result.Quality.Passed
	}
	j.logger.WithFields(fields).Info("Scheduled pipeline run completed")

	return nil
}
