package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ashare-daily/backend/internal/calendar"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/pipeline"
	"github.com/wonny/ashare-daily/backend/internal/storage"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

type runnerFunc func(ctx context.Context, date time.Time, opts pipeline.Options) (*contracts.PipelineResult, error)

func (f runnerFunc) Run(ctx context.Context, date time.Time, opts pipeline.Options) (*contracts.PipelineResult, error) {
	return f(ctx, date, opts)
}

var cst = time.FixedZone("CST", 8*3600)

func TestDailyPipelineJob_RunsOnTradingDay(t *testing.T) {
	var gotDate time.Time
	var gotOpts pipeline.Options
	runner := runnerFunc(func(_ context.Context, date time.Time, opts pipeline.Options) (*contracts.PipelineResult, error) {
		gotDate, gotOpts = date, opts
		return &contracts.PipelineResult{
			Date:    date.Format(contracts.DateLayout),
			Quality: &contracts.QualityReport{OverallScore: 90, Passed: true},
		}, nil
	})

	job := NewDailyPipelineJob(runner, calendar.Default(), cst, "", pipeline.Options{StopOnFail: true}, logger.Nop())
	// 2026-01-05 07:35 UTC is 15:35 in Shanghai, a Monday
	job.now = func() time.Time { return time.Date(2026, 1, 5, 7, 35, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "2026-01-05", gotDate.Format(contracts.DateLayout))
	assert.True(t, gotOpts.StopOnFail)
	assert.Equal(t, DefaultDailySchedule, job.Schedule())
	assert.Equal(t, "daily_pipeline", job.Name())
}

func TestDailyPipelineJob_SkipsHoliday(t *testing.T) {
	called := false
	runner := runnerFunc(func(context.Context, time.Time, pipeline.Options) (*contracts.PipelineResult, error) {
		called = true
		return &contracts.PipelineResult{}, nil
	})

	job := NewDailyPipelineJob(runner, calendar.Default(), cst, "0 0 16 * * *", pipeline.Options{}, logger.Nop())
	job.now = func() time.Time { return time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.False(t, called)
	assert.Equal(t, "0 0 16 * * *", job.Schedule())
}

func TestDailyPipelineJob_PropagatesGateFailure(t *testing.T) {
	runner := runnerFunc(func(context.Context, time.Time, pipeline.Options) (*contracts.PipelineResult, error) {
		return &contracts.PipelineResult{Halted: true}, pipeline.ErrQualityGateFailed
	})

	job := NewDailyPipelineJob(runner, calendar.Default(), cst, "", pipeline.Options{StopOnFail: true}, logger.Nop())
	job.now = func() time.Time { return time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC) }

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrQualityGateFailed))
	assert.Contains(t, err.Error(), "2026-01-06")
}

func TestRetentionJob(t *testing.T) {
	ctx := context.Background()
	store, err := storage.New(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	for _, d := range []string{"2025-12-01", "2025-12-20", "2026-01-05"} {
		_, err := store.SaveNews(ctx, d, []contracts.NewsItem{})
		require.NoError(t, err)
	}
	_, err = store.SaveBasis(ctx, "2025-11-30", []contracts.BasisRecord{})
	require.NoError(t, err)

	job := NewRetentionJob(store, 30, cst, logger.Nop())
	job.now = func() time.Time { return time.Date(2026, 1, 5, 3, 0, 0, 0, cst) }
	assert.Equal(t, "2025-12-06", job.Cutoff())

	require.NoError(t, job.Run(ctx))

	news, err := store.ListDates(contracts.PayloadNews)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-20", "2026-01-05"}, news)

	basis, err := store.ListDates(contracts.PayloadBasis)
	require.NoError(t, err)
	assert.Empty(t, basis)
}

func TestRetentionJob_Disabled(t *testing.T) {
	store, err := storage.New(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	_, err = store.SaveNews(context.Background(), "2020-01-02", []contracts.NewsItem{})
	require.NoError(t, err)

	require.NoError(t, NewRetentionJob(store, 0, cst, logger.Nop()).Run(context.Background()))
	assert.True(t, store.Exists(contracts.PayloadNews, "2020-01-02"))
}
