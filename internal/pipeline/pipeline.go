// Package pipeline runs the daily flow: collect, quality gate, analyze, report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/ashare-daily/backend/internal/analyzer"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/quality"
	"github.com/wonny/ashare-daily/backend/internal/reporter"
	"github.com/wonny/ashare-daily/backend/internal/storage"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
	"github.com/wonny/ashare-daily/backend/pkg/metrics"
)

// ErrQualityGateFailed marks a run halted by a failing quality gate
var ErrQualityGateFailed = errors.New("quality gate failed")

// Collectors are the upstream sources. A nil collector is skipped.
type Collectors struct {
	Market  contracts.MarketCollector
	Futures contracts.FuturesCollector
	News    contracts.NewsCollector
}

// Options control a full run
type Options struct {
	// StopOnFail halts before analysis when the quality gate fails
	StopOnFail bool
	// SkipCollect reuses payloads already stored for the date
	SkipCollect bool
	Format      reporter.Format
}

// CollectSummary reports per-domain collection outcomes
type CollectSummary struct {
	Counts map[contracts.PayloadType]int    `json:"counts"`
	Errors map[contracts.PayloadType]string `json:"errors,omitempty"`
}

// Pipeline wires collectors, storage, quality, analyzer and reporter
// ⭐ SSOT: 일일 파이프라인 오케스트레이션은 여기서만
type Pipeline struct {
	collectors Collectors
	store      *storage.Store
	analyzer   *analyzer.Analyzer
	snapshots  contracts.QualitySnapshotStore
	metrics    *metrics.Registry
	logger     *logger.Logger
	now        func() time.Time
}

// New creates a pipeline
func New(collectors Collectors, store *storage.Store, an *analyzer.Analyzer, log *logger.Logger) *Pipeline {
	return &Pipeline{
		collectors: collectors,
		store:      store,
		analyzer:   an,
		logger:     log.WithComponent("pipeline"),
		now:        time.Now,
	}
}

// WithSnapshots persists every quality report to s
func (p *Pipeline) WithSnapshots(s contracts.QualitySnapshotStore) *Pipeline {
	p.snapshots = s
	return p
}

// WithMetrics attaches a metrics registry
func (p *Pipeline) WithMetrics(m *metrics.Registry) *Pipeline {
	p.metrics = m
	return p
}

// Store returns the payload store
func (p *Pipeline) Store() *storage.Store {
	return p.store
}

// Collect fetches market, futures and news in order and stores what arrived.
// A failing collector is logged and recorded in the summary; only
// cancellation or a storage failure aborts.
func (p *Pipeline) Collect(ctx context.Context, date time.Time) (*CollectSummary, error) {
	day := date.Format(contracts.DateLayout)
	summary := &CollectSummary{
		Counts: make(map[contracts.PayloadType]int),
		Errors: make(map[contracts.PayloadType]string),
	}

	step := func(t contracts.PayloadType, fetch func() (int, interface{}, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count, data, err := fetch()
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			summary.Errors[t] = err.Error()
			p.logger.WithFields(map[string]interface{}{"date": day, "type": t}).
				WithError(err).Error("Collection failed")
			return nil
		}
		if _, err := p.store.Save(ctx, t, day, data); err != nil {
			return fmt.Errorf("save %s: %w", t, err)
		}
		summary.Counts[t] = count
		p.logger.WithFields(map[string]interface{}{"date": day, "type": t, "count": count}).
			Info("Collected")
		return nil
	}

	if c := p.collectors.Market; c != nil {
		if err := step(contracts.PayloadMarket, func() (int, interface{}, error) {
			quotes, err := c.CollectMarket(ctx)
			return len(quotes), quotes, err
		}); err != nil {
			return summary, err
		}
	}

	if c := p.collectors.Futures; c != nil {
		if err := step(contracts.PayloadFutures, func() (int, interface{}, error) {
			board, err := c.CollectFutures(ctx, date)
			filled := 0
			for _, slots := range board {
				for _, q := range slots {
					if q != nil {
						filled++
					}
				}
			}
			return filled, board, err
		}); err != nil {
			return summary, err
		}
	}

	if c := p.collectors.News; c != nil {
		if err := step(contracts.PayloadNews, func() (int, interface{}, error) {
			items, err := c.CollectNews(ctx)
			return len(items), items, err
		}); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// Load reads the stored payloads of date. Missing payloads are empty.
func (p *Pipeline) Load(ctx context.Context, date time.Time) (analyzer.Inputs, error) {
	day := date.Format(contracts.DateLayout)
	var in analyzer.Inputs

	market, err := p.store.LoadMarket(ctx, day)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return in, err
	}
	futures, err := p.store.LoadFutures(ctx, day)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return in, err
	}
	news, err := p.store.LoadNews(ctx, day)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return in, err
	}

	in.Market, in.Futures, in.News = market, futures, news
	return in, nil
}

// Quality validates the stored payloads of date and scores them.
// Domains are validated concurrently; the report keeps reporting order.
func (p *Pipeline) Quality(ctx context.Context, date time.Time) (*contracts.QualityReport, error) {
	in, err := p.Load(ctx, date)
	if err != nil {
		return nil, err
	}
	records, err := p.analyzer.Basis(date, in.Market, in.Futures)
	if err != nil {
		return nil, err
	}

	payloads := quality.Payloads{Market: in.Market, Futures: in.Futures, News: in.News, Basis: records}
	domains := make([]contracts.Domain, 0, len(contracts.Domains))
	for _, d := range contracts.Domains {
		if payloads.Applicable(d) {
			domains = append(domains, d)
		}
	}

	scores := make([]contracts.DomainScore, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range domains {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = quality.ValidateDomain(d, payloads)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	day := date.Format(contracts.DateLayout)
	report := quality.Aggregate(day, scores)
	report.Timestamp = p.now()

	if _, err := p.store.SaveQuality(ctx, day, report); err != nil {
		return nil, fmt.Errorf("save quality report: %w", err)
	}
	if p.snapshots != nil {
		if err := p.snapshots.SaveReport(ctx, report); err != nil {
			// 스냅샷 실패는 게이트 결과에 영향 없음
			p.logger.WithError(err).Warn("Quality snapshot save failed")
		}
	}
	p.metrics.ObserveQuality(report)

	p.logger.WithFields(map[string]interface{}{
		"date":    day,
		"overall": report.OverallScore,
		"passed":  report.Passed,
		"issues":  len(report.Issues),
	}).Info("Quality evaluated")

	return report, nil
}

// Analyze runs the analyzer on stored payloads and stores analysis and basis
func (p *Pipeline) Analyze(ctx context.Context, date time.Time) (*analyzer.Analysis, error) {
	in, err := p.Load(ctx, date)
	if err != nil {
		return nil, err
	}

	result, err := p.analyzer.Analyze(date, in)
	if err != nil {
		return nil, err
	}

	day := result.Date
	if _, err := p.store.SaveBasis(ctx, day, result.Basis); err != nil {
		return nil, fmt.Errorf("save basis: %w", err)
	}
	if _, err := p.store.SaveAnalysis(ctx, day, result); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	p.metrics.ObserveBasis(result.Basis)

	return result, nil
}

// LoadAnalysis returns the stored analysis of date
func (p *Pipeline) LoadAnalysis(ctx context.Context, date time.Time) (*analyzer.Analysis, error) {
	var a analyzer.Analysis
	if err := p.store.LoadAnalysis(ctx, date.Format(contracts.DateLayout), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Report renders the stored analysis of date, analyzing first when none is stored
func (p *Pipeline) Report(ctx context.Context, date time.Time, format reporter.Format) (string, error) {
	a, err := p.LoadAnalysis(ctx, date)
	if errors.Is(err, storage.ErrNotFound) {
		a, err = p.Analyze(ctx, date)
	}
	if err != nil {
		return "", err
	}
	return reporter.Render(a, format), nil
}

// Run executes every stage for date. A stage error stops the run and is
// returned; a failing gate only stops it when StopOnFail is set.
func (p *Pipeline) Run(ctx context.Context, date time.Time, opts Options) (*contracts.PipelineResult, error) {
	day := date.Format(contracts.DateLayout)
	result := &contracts.PipelineResult{
		Date:   day,
		Failed: make(map[contracts.Stage]string),
	}
	log := p.logger.WithField("date", day)
	log.Info("Pipeline started")

	fail := func(stage contracts.Stage, err error) (*contracts.PipelineResult, error) {
		result.Failed[stage] = err.Error()
		p.metrics.ObserveStage(stage, "failed")
		log.WithField("stage", stage).WithError(err).Error("Pipeline stage failed")
		return result, fmt.Errorf("%s: %w", stage, err)
	}
	done := func(stage contracts.Stage) {
		result.Completed = append(result.Completed, stage)
		p.metrics.ObserveStage(stage, "ok")
	}

	if !opts.SkipCollect {
		if _, err := p.Collect(ctx, date); err != nil {
			return fail(contracts.StageCollect, err)
		}
		done(contracts.StageCollect)
	}

	report, err := p.Quality(ctx, date)
	if err != nil {
		return fail(contracts.StageQuality, err)
	}
	result.Quality = report
	done(contracts.StageQuality)

	if !report.Passed {
		log.WithFields(map[string]interface{}{
			"overall": report.OverallScore,
			"issues":  report.Issues,
		}).Warn("Quality gate failed")
		if opts.StopOnFail {
			result.Halted = true
			p.metrics.ObserveStage(contracts.StageAnalyze, "skipped")
			return result, fmt.Errorf("%w: score %d", ErrQualityGateFailed, report.OverallScore)
		}
	}

	a, err := p.Analyze(ctx, date)
	if err != nil {
		return fail(contracts.StageAnalyze, err)
	}
	result.Basis = a.Basis
	done(contracts.StageAnalyze)

	result.Report = reporter.Render(a, opts.Format)
	done(contracts.StageReport)

	log.WithField("completed", len(result.Completed)).Info("Pipeline finished")
	return result, nil
}
