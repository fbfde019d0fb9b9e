// Package calendar implements exchange trading-day arithmetic and
// index-futures contract expiry rules.
package calendar

import (
	"fmt"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

const dateKeyLayout = "2006-01-02"

// ErrInvalidContractType is returned for unknown contract types
var ErrInvalidContractType = contracts.ErrInvalidContractType

// Calendar answers trading-day questions from an immutable holiday table.
// Safe for concurrent use.
type Calendar struct {
	version  string
	hash     string
	holidays map[string]struct{}
	years    map[int]bool
}

// New builds a Calendar from a validated table
func New(table *HolidayTable) (*Calendar, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	hash, err := table.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash holiday table: %w", err)
	}

	c := &Calendar{
		version:  table.Version,
		hash:     hash,
		holidays: make(map[string]struct{}),
		years:    make(map[int]bool, len(table.Years)),
	}
	for year, yh := range table.Years {
		c.years[year] = true
		for _, d := range yh.Holidays {
			c.holidays[d] = struct{}{}
		}
	}
	return c, nil
}

// Load builds a Calendar from a holiday file, or from the embedded table when path is empty
func Load(path string) (*Calendar, error) {
	table, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return New(table)
}

// Default returns a Calendar over the embedded holiday table
func Default() *Calendar {
	c, err := Load("")
	if err != nil {
		// embedded table is validated by tests
		panic(fmt.Sprintf("calendar: embedded holiday table: %v", err))
	}
	return c
}

// Version returns the holiday table version
func (c *Calendar) Version() string {
	return c.version
}

// Fingerprint returns the holiday table hash
func (c *Calendar) Fingerprint() string {
	return c.hash
}

// Covers reports whether the holiday table has an entry for year.
// Years outside the table fall back to the weekend rule only.
func (c *Calendar) Covers(year int) bool {
	return c.years[year]
}

// IsTradingDay reports whether date is neither a weekend nor a listed holiday
func (c *Calendar) IsTradingDay(date time.Time) bool {
	d := civil(date)
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, closed := c.holidays[d.Format(dateKeyLayout)]
	return !closed
}

// TradingDaysBetween counts trading days in [start, end] inclusive; 0 if start > end
func (c *Calendar) TradingDaysBetween(start, end time.Time) int {
	s, e := civil(start), civil(end)
	count := 0
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			count++
		}
	}
	return count
}

// NextTradingDay returns the first trading day strictly after date
func (c *Calendar) NextTradingDay(date time.Time) time.Time {
	d := civil(date).AddDate(0, 0, 1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// TradingDaysToExpiry counts trading days from `from` through the expiry of the
// contract of type ct listed in from's month. Returns 0 once expiry has passed.
func (c *Calendar) TradingDaysToExpiry(ct contracts.ContractType, from time.Time) (int, error) {
	expiry, err := ContractExpiry(ct, from.Year(), from.Month())
	if err != nil {
		return 0, err
	}
	return c.TradingDaysBetween(from, expiry), nil
}

// UncoveredExpiryYears returns the years between from and the farthest listed
// expiry that the holiday table has no entry for, ascending. Days to expiry
// counted through such a year only skip weekends.
func (c *Calendar) UncoveredExpiryYears(from time.Time) []int {
	last, err := ContractExpiry(contracts.FarQuarter, from.Year(), from.Month())
	if err != nil {
		return nil
	}

	var years []int
	for y := from.Year(); y <= last.Year(); y++ {
		if !c.Covers(y) {
			years = append(years, y)
		}
	}
	return years
}

// ThirdFridayExpiry returns the third Friday of the month (first Friday + 14 days)
func ThirdFridayExpiry(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// ContractMonth returns the delivery year/month of contract type ct evaluated in (year, month).
// CurrentMonth is the month itself; NextQuarter rolls one month and FarQuarter two,
// wrapping into the next year.
func ContractMonth(ct contracts.ContractType, year int, month time.Month) (int, time.Month, error) {
	switch ct {
	case contracts.CurrentMonth:
		return year, month, nil
	case contracts.NextQuarter:
		if month == time.December {
			return year + 1, time.January, nil
		}
		return year, month + 1, nil
	case contracts.FarQuarter:
		if month >= time.November {
			return year + 1, month - 10, nil
		}
		return year, month + 2, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidContractType, string(ct))
	}
}

// ContractExpiry returns the expiry date of contract type ct evaluated in (year, month)
func ContractExpiry(ct contracts.ContractType, year int, month time.Month) (time.Time, error) {
	y, m, err := ContractMonth(ct, year, month)
	if err != nil {
		return time.Time{}, err
	}
	return ThirdFridayExpiry(y, m), nil
}

// ContractSymbol returns the exchange symbol, e.g. IF2611 for IF expiring November 2026
func ContractSymbol(code string, ct contracts.ContractType, year int, month time.Month) (string, error) {
	y, m, err := ContractMonth(ct, year, month)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%02d%02d", code, y%100, int(m)), nil
}

// civil drops the clock and zone, keeping the caller's calendar date
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
