package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wonny/ashare-daily/backend/internal/analyzer"
	"github.com/wonny/ashare-daily/backend/internal/basis"
	"github.com/wonny/ashare-daily/backend/internal/calendar"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/external/eastmoney"
	"github.com/wonny/ashare-daily/backend/internal/external/news"
	"github.com/wonny/ashare-daily/backend/internal/external/tencent"
	"github.com/wonny/ashare-daily/backend/internal/pipeline"
	"github.com/wonny/ashare-daily/backend/internal/quality"
	"github.com/wonny/ashare-daily/backend/internal/storage"
	"github.com/wonny/ashare-daily/backend/pkg/config"
	"github.com/wonny/ashare-daily/backend/pkg/database"
	"github.com/wonny/ashare-daily/backend/pkg/httputil"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
	"github.com/wonny/ashare-daily/backend/pkg/metrics"
	"github.com/wonny/ashare-daily/backend/pkg/redis"
)

// cachePrefix namespaces every Redis key of this service
const cachePrefix = "ashare"

// app holds the wired dependencies shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *metrics.Registry
	calendar  *calendar.Calendar
	store     *storage.Store
	pipeline  *pipeline.Pipeline
	db        *database.DB
	redis     *redis.Client
	snapshots *quality.Repository
}

// loadConfig applies the global flags on top of config.Load
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires storage, collectors and the pipeline. The database and Redis
// are optional: they are connected only when configured.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 1. Trading calendar
	a.calendar, err = calendar.Load(cfg.Calendar.HolidayFile)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	// 2. Redis cache (optional)
	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 3. Payload store
	a.store, err = storage.New(cfg.Storage.DataDir, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	if a.redis.Enabled() {
		a.store.WithCache(redis.NewCache(a.redis, cachePrefix))
	}

	// 4. Collectors
	httpClient := httputil.New(cfg, log).WithMetrics(a.metrics)
	collectors := pipeline.Collectors{
		Market:  tencent.NewClient(httpClient, log, cfg.Sources.TencentBaseURL),
		Futures: eastmoney.NewClient(httpClient, log, cfg.Sources.EastmoneyBaseURL),
		News:    news.NewClient(httpClient, log, cfg.Sources.NewsHTMLSources, cfg.Sources.NewsRSSSources),
	}

	// 5. Pipeline
	an := analyzer.New(basis.NewEngine(a.calendar), log).WithCoverage(a.calendar)
	a.pipeline = pipeline.New(collectors, a.store, an, log).WithMetrics(a.metrics)

	// 6. Quality snapshots (optional)
	a.db, err = database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Debug("DATABASE_URL not set, quality snapshots disabled")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.snapshots = quality.NewRepository(a.db.Pool)
		if err := a.snapshots.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure quality schema: %w", err)
		}
		a.pipeline.WithSnapshots(a.snapshots)
	}

	log.WithFields(map[string]interface{}{
		"env":      cfg.Env,
		"data_dir": cfg.Storage.DataDir,
		"calendar": a.calendar.Version(),
		"redis":    a.redis.Enabled(),
		"database": a.db != nil,
	}).Debug("Application wired")

	return a, nil
}

// Close releases the optional connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}

// resolveDate parses a --date flag. Empty or "today" is today in loc.
func resolveDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "today") {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
	}
	d, err := time.ParseInLocation(contracts.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return d, nil
}
