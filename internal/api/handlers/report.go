package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/pipeline"
	"github.com/wonny/ashare-daily/backend/internal/quality"
	"github.com/wonny/ashare-daily/backend/internal/reporter"
	"github.com/wonny/ashare-daily/backend/internal/storage"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// SnapshotReader reads persisted quality reports
type SnapshotReader interface {
	GetByDate(ctx context.Context, date string) (*contracts.QualityReport, error)
}

// ReportHandler serves stored quality reports, basis records and daily reports
// ⭐ SSOT: 리포트 API 핸들러는 이 구조체에서만
type ReportHandler struct {
	pipeline  *pipeline.Pipeline
	snapshots SnapshotReader
	loc       *time.Location
	logger    *logger.Logger
	now       func() time.Time
}

// NewReportHandler creates a report handler. snapshots may be nil.
func NewReportHandler(p *pipeline.Pipeline, snapshots SnapshotReader, loc *time.Location, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		pipeline:  p,
		snapshots: snapshots,
		loc:       loc,
		logger:    log,
		now:       time.Now,
	}
}

// GetQuality returns the quality report of a date
// GET /api/quality/{date}?format=json|text
func (h *ReportHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	date, ok := routeDate(r, h.loc, h.now)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
		return
	}
	day := date.Format(contracts.DateLayout)

	report, err := h.pipeline.Store().LoadQuality(r.Context(), day)
	if errors.Is(err, storage.ErrNotFound) && h.snapshots != nil {
		report, err = h.snapshots.GetByDate(r.Context(), day)
	}
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, quality.ErrSnapshotNotFound) {
		respondError(w, http.StatusNotFound, "No quality report for "+day)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load quality report")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve quality report")
		return
	}

	if r.URL.Query().Get("format") == "text" {
		respondText(w, "text/plain", quality.RenderText(report))
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetBasis returns the basis records of a date
// GET /api/basis/{date}
func (h *ReportHandler) GetBasis(w http.ResponseWriter, r *http.Request) {
	date, ok := routeDate(r, h.loc, h.now)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
		return
	}
	day := date.Format(contracts.DateLayout)

	records, err := h.pipeline.Store().LoadBasis(r.Context(), day)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No basis records for "+day)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load basis records")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve basis records")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":    day,
		"count":   len(records),
		"records": records,
	})
}

// GetReport renders the stored analysis of a date
// GET /api/report/{date}?format=markdown|brief|json
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	date, ok := routeDate(r, h.loc, h.now)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
		return
	}

	requested := r.URL.Query().Get("format")
	var format reporter.Format
	if requested != "json" {
		f, err := reporter.ParseFormat(requested)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	a, err := h.pipeline.LoadAnalysis(r.Context(), date)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No analysis for "+date.Format(contracts.DateLayout))
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load analysis")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve analysis")
		return
	}

	if requested == "json" {
		respondJSON(w, http.StatusOK, a)
		return
	}
	respondText(w, "text/markdown", reporter.Render(a, format))
}
