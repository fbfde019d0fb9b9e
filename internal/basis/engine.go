// Package basis computes futures basis and annualized carry against spot indices.
package basis

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// Fallback horizons (trading days) used when a contract's computed days to
// expiry is not positive, i.e. the listed contract has already rolled.
const (
	FallbackCurrentMonthDays = 15
	FallbackNextQuarterDays  = 35
	FallbackFarQuarterDays   = 70
)

// DaysPerYear is the annualization base
const DaysPerYear = 365

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(DaysPerYear)
)

// ExpiryCalendar is the slice of the trading calendar the engine needs
type ExpiryCalendar interface {
	TradingDaysToExpiry(ct contracts.ContractType, from time.Time) (int, error)
}

// Engine computes BasisRecords. It is stateless apart from the calendar.
type Engine struct {
	cal   ExpiryCalendar
	links map[string]string // futures code → spot code
}

// NewEngine creates an engine over the canonical futures → spot links
func NewEngine(cal ExpiryCalendar) *Engine {
	links := make(map[string]string, len(contracts.FuturesProducts))
	for _, p := range contracts.FuturesProducts {
		links[p.Code] = p.SpotCode
	}
	return &Engine{cal: cal, links: links}
}

// FallbackDays returns the substitute horizon for a lapsed contract
func FallbackDays(ct contracts.ContractType) (int, error) {
	switch ct {
	case contracts.CurrentMonth:
		return FallbackCurrentMonthDays, nil
	case contracts.NextQuarter:
		return FallbackNextQuarterDays, nil
	case contracts.FarQuarter:
		return FallbackFarQuarterDays, nil
	default:
		return 0, fmt.Errorf("%w: %q", contracts.ErrInvalidContractType, string(ct))
	}
}

// Round2 rounds to two decimals, half away from zero, in decimal arithmetic.
// 9.125 → 9.13, -9.125 → -9.13.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Compute returns one record per (futures code, contract type) pair that has a
// positive spot price and a positive futures price, evaluated as of asOf.
// Pairs with missing data are skipped. Records are sorted by annualized basis
// descending; ties keep discovery order (futures code order, then
// CurrentMonth, NextQuarter, FarQuarter).
func (e *Engine) Compute(spot map[string]contracts.SpotIndex, board contracts.FuturesBoard, asOf time.Time) ([]contracts.BasisRecord, error) {
	records := make([]contracts.BasisRecord, 0)

	for _, code := range board.Codes() {
		spotCode, ok := e.links[code]
		if !ok {
			continue
		}
		s, ok := spot[spotCode]
		if !ok || s.Price <= 0 {
			continue
		}

		for _, ct := range contracts.ContractTypes {
			q := board[code][ct]
			if q == nil || q.Price == nil || *q.Price <= 0 {
				continue
			}

			rec, err := e.record(code, ct, s, *q.Price, asOf)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AnnualizedBasis > records[j].AnnualizedBasis
	})

	return records, nil
}

func (e *Engine) record(code string, ct contracts.ContractType, s contracts.SpotIndex, futuresPrice float64, asOf time.Time) (contracts.BasisRecord, error) {
	days, err := e.cal.TradingDaysToExpiry(ct, asOf)
	if err != nil {
		return contracts.BasisRecord{}, fmt.Errorf("trading days to expiry for %s %s: %w", code, ct, err)
	}
	if days <= 0 {
		if days, err = FallbackDays(ct); err != nil {
			return contracts.BasisRecord{}, err
		}
	}

	fut := decimal.NewFromFloat(futuresPrice)
	spt := decimal.NewFromFloat(s.Price)

	basis := fut.Sub(spt)
	basisPercent := basis.Div(spt).Mul(hundred)
	annualized := basisPercent.Mul(daysPerYear).Div(decimal.NewFromInt(int64(days)))

	name := s.Name
	if name == "" {
		name = contracts.IndexName(s.Code)
	}

	return contracts.BasisRecord{
		FuturesCode:         code,
		SpotIndexName:       name,
		ContractType:        ct,
		FuturesPrice:        futuresPrice,
		SpotPrice:           s.Price,
		Basis:               basis.Round(2).InexactFloat64(),
		BasisPercent:        basisPercent.Round(2).InexactFloat64(),
		AnnualizedBasis:     annualized.Round(2).InexactFloat64(),
		TradingDaysToExpiry: days,
	}, nil
}
