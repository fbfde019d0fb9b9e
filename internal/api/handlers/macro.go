package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/quality"
	"github.com/wonny/ashare-daily/backend/internal/storage"
)

// MacroView is a macro snapshot with its quality check
type MacroView struct {
	Date     string                        `json:"date"`
	Snapshot *contracts.MacroSnapshot      `json:"snapshot"`
	Quality  *contracts.MacroQualityReport `json:"quality"`
}

// CheckMacro loads the macro snapshot of date and checks it against the
// previous stored one
func CheckMacro(ctx context.Context, store *storage.Store, date string) (*MacroView, error) {
	snap, err := store.LoadMacro(ctx, date)
	if err != nil {
		return nil, err
	}

	prevDate, prev, err := store.PreviousMacro(ctx, date)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	report := quality.ValidateMacro(date, snap, prev)
	report.PreviousDate = prevDate
	return &MacroView{Date: date, Snapshot: snap, Quality: report}, nil
}

// GetMacro returns the macro snapshot of a date with its quality check
// GET /api/macro/{date}?format=json|text
func (h *ReportHandler) GetMacro(w http.ResponseWriter, r *http.Request) {
	date, ok := routeDate(r, h.loc, h.now)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
		return
	}
	day := date.Format(contracts.DateLayout)

	view, err := CheckMacro(r.Context(), h.pipeline.Store(), day)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No macro data for "+day)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load macro data")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve macro data")
		return
	}

	if r.URL.Query().Get("format") == "text" {
		respondText(w, "text/plain", quality.RenderMacroText(view.Quality))
		return
	}
	respondJSON(w, http.StatusOK, view)
}
