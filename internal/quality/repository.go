package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// ErrSnapshotNotFound is returned when no report is stored for a date
var ErrSnapshotNotFound = errors.New("quality snapshot not found")

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS audit;
	CREATE TABLE IF NOT EXISTS audit.quality_reports (
		report_date   DATE PRIMARY KEY,
		overall_score INTEGER NOT NULL,
		passed        BOOLEAN NOT NULL,
		scores        JSONB NOT NULL,
		details       JSONB NOT NULL,
		issues        TEXT[] NOT NULL,
		warnings      TEXT[] NOT NULL,
		evaluated_at  TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// Repository handles quality report persistence
// ⭐ SSOT: 품질 리포트 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the snapshot table if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure quality schema: %w", err)
	}
	return nil
}

// SaveReport upserts a quality report keyed by its date
func (r *Repository) SaveReport(ctx context.Context, report *contracts.QualityReport) error {
	date, err := time.Parse(contracts.DateLayout, report.Date)
	if err != nil {
		return fmt.Errorf("save quality report: invalid date %q: %w", report.Date, err)
	}

	scores, err := json.Marshal(report.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	details, err := json.Marshal(report.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	evaluatedAt := report.Timestamp
	if evaluatedAt.IsZero() {
		evaluatedAt = time.Now()
	}

	query := `
		INSERT INTO audit.quality_reports (
			report_date, overall_score, passed, scores, details,
			issues, warnings, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (report_date) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			passed = EXCLUDED.passed,
			scores = EXCLUDED.scores,
			details = EXCLUDED.details,
			issues = EXCLUDED.issues,
			warnings = EXCLUDED.warnings,
			evaluated_at = EXCLUDED.evaluated_at,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		date,
		report.OverallScore,
		report.Passed,
		scores,
		details,
		nonNil(report.Issues),
		nonNil(report.Warnings),
		evaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("save quality report: %w", err)
	}

	return nil
}

// GetByDate retrieves the report stored for date (YYYY-MM-DD)
func (r *Repository) GetByDate(ctx context.Context, date string) (*contracts.QualityReport, error) {
	d, err := time.Parse(contracts.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("get quality report: invalid date %q: %w", date, err)
	}

	query := `
		SELECT report_date, overall_score, passed, scores, details,
			issues, warnings, evaluated_at
		FROM audit.quality_reports
		WHERE report_date = $1
	`

	report, err := scanReport(r.pool.QueryRow(ctx, query, d))
	if err != nil {
		return nil, fmt.Errorf("get quality report %s: %w", date, err)
	}
	return report, nil
}

// GetLatest retrieves the most recent report
func (r *Repository) GetLatest(ctx context.Context) (*contracts.QualityReport, error) {
	query := `
		SELECT report_date, overall_score, passed, scores, details,
			issues, warnings, evaluated_at
		FROM audit.quality_reports
		ORDER BY report_date DESC
		LIMIT 1
	`

	report, err := scanReport(r.pool.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("get latest quality report: %w", err)
	}
	return report, nil
}

func scanReport(row pgx.Row) (*contracts.QualityReport, error) {
	var (
		date            time.Time
		scores, details []byte
		report          contracts.QualityReport
	)

	err := row.Scan(
		&date,
		&report.OverallScore,
		&report.Passed,
		&scores,
		&details,
		&report.Issues,
		&report.Warnings,
		&report.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scores, &report.Scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	if err := json.Unmarshal(details, &report.Details); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}

	report.Date = date.Format(contracts.DateLayout)
	return &report, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
