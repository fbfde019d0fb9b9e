package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/calendar"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// ContractInfo describes one listed maturity as seen from a date
type ContractInfo struct {
	Contract            contracts.ContractType `json:"contract"`
	Label               string                 `json:"label"`
	Month               string                 `json:"month"`
	Expiry              string                 `json:"expiry"`
	TradingDaysToExpiry int                    `json:"trading_days_to_expiry"`
}

// CalendarDay is the calendar view of a date
type CalendarDay struct {
	Date           string         `json:"date"`
	TradingDay     bool           `json:"trading_day"`
	NextTradingDay string         `json:"next_trading_day"`
	Covered        bool           `json:"covered"`
	Version        string         `json:"calendar_version"`
	Fingerprint    string         `json:"calendar_fingerprint"`
	Contracts      []ContractInfo `json:"contracts"`
}

// CalendarHandler serves trading calendar lookups
type CalendarHandler struct {
	cal    *calendar.Calendar
	loc    *time.Location
	logger *logger.Logger
	now    func() time.Time
}

// NewCalendarHandler creates a calendar handler
func NewCalendarHandler(cal *calendar.Calendar, loc *time.Location, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{cal: cal, loc: loc, logger: log, now: time.Now}
}

// GetDay returns trading-day status and contract expiries
// GET /api/calendar/{date}
func (h *CalendarHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := routeDate(r, h.loc, h.now)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
		return
	}

	day, err := Describe(h.cal, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to describe calendar day")
		respondError(w, http.StatusInternalServerError, "Failed to evaluate calendar")
		return
	}
	respondJSON(w, http.StatusOK, day)
}

// Describe builds the calendar view of date
func Describe(cal *calendar.Calendar, date time.Time) (*CalendarDay, error) {
	day := &CalendarDay{
		Date:           date.Format(contracts.DateLayout),
		TradingDay:     cal.IsTradingDay(date),
		NextTradingDay: cal.NextTradingDay(date).Format(contracts.DateLayout),
		Covered:        cal.Covers(date.Year()),
		Version:        cal.Version(),
		Fingerprint:    cal.Fingerprint(),
	}

	for _, ct := range contracts.ContractTypes {
		y, m, err := calendar.ContractMonth(ct, date.Year(), date.Month())
		if err != nil {
			return nil, err
		}
		days, err := cal.TradingDaysToExpiry(ct, date)
		if err != nil {
			return nil, err
		}
		day.Contracts = append(day.Contracts, ContractInfo{
			Contract:            ct,
			Label:               ct.Label(),
			Month:               time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			Expiry:              calendar.ThirdFridayExpiry(y, m).Format(contracts.DateLayout),
			TradingDaysToExpiry: days,
		})
	}
	return day, nil
}
