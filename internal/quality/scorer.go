package quality

import (
	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// PassThreshold is the minimum overall score for the gate to pass
const PassThreshold = 70

// Weights are the per-finding deductions of one domain
type Weights struct {
	Error   int
	Warning int
}

// DomainWeights
// ⭐ SSOT: 도메인별 감점 가중치
var DomainWeights = map[contracts.Domain]Weights{
	contracts.DomainMarket:  {Error: 20, Warning: 5},
	contracts.DomainFutures: {Error: 15, Warning: 5},
	contracts.DomainNews:    {Error: 10, Warning: 3},
	contracts.DomainBasis:   {Error: 10, Warning: 3},
}

var fallbackWeights = Weights{Error: 10, Warning: 3}

// Score computes max(0, 100 - errors*We - warnings*Ww)
func Score(d contracts.Domain, r contracts.ValidationResult) int {
	w, ok := DomainWeights[d]
	if !ok {
		w = fallbackWeights
	}

	score := 100 - len(r.Errors)*w.Error - len(r.Warnings)*w.Warning
	if score < 0 {
		return 0
	}
	return score
}

// Payloads are the inputs of one gate evaluation
type Payloads struct {
	Market  []contracts.MarketQuote
	Futures contracts.FuturesBoard
	News    []contracts.NewsItem
	Basis   []contracts.BasisRecord
}

// Applicable reports whether d takes part in the overall score.
// Market, futures and news always do (missing data is scored as empty);
// basis only when at least one record was produced.
func (p Payloads) Applicable(d contracts.Domain) bool {
	if d == contracts.DomainBasis {
		return len(p.Basis) > 0
	}
	return true
}

// ValidateDomain validates and scores a single domain. It is safe to call
// concurrently for different domains of the same Payloads.
func ValidateDomain(d contracts.Domain, p Payloads) contracts.DomainScore {
	var (
		r  contracts.ValidationResult
		ds = contracts.DomainScore{Domain: d}
	)

	switch d {
	case contracts.DomainMarket:
		r = ValidateMarket(p.Market)
		ds.Count = len(p.Market)
	case contracts.DomainFutures:
		r = ValidateFutures(p.Futures)
		ds.Filled, ds.Expected = futuresCompleteness(p.Futures)
		ds.Count = ds.Filled
	case contracts.DomainNews:
		r = ValidateNews(p.News)
		ds.Count = len(p.News)
	case contracts.DomainBasis:
		r = ValidateBasis(p.Basis)
		ds.Count = len(p.Basis)
	}

	ds.Errors = r.Errors
	ds.Warnings = r.Warnings
	ds.Score = Score(d, r)
	return ds
}

// futuresCompleteness counts priced contracts against expected contracts of the products present
func futuresCompleteness(board contracts.FuturesBoard) (filled, expected int) {
	for _, p := range contracts.FuturesProducts {
		slots, ok := board[p.Code]
		if !ok {
			continue
		}
		expected += len(p.Contracts)
		for _, ct := range p.Contracts {
			if q := slots[ct]; q != nil && q.Price != nil && *q.Price > 0 {
				filled++
			}
		}
	}
	return filled, expected
}

// Aggregate folds scored domains into a report. Only the given domains
// contribute: overall = floor(mean(scores)), passed = overall >= PassThreshold.
// Issues and warnings are concatenated in the given order.
func Aggregate(date string, scores []contracts.DomainScore) *contracts.QualityReport {
	report := &contracts.QualityReport{
		Date:     date,
		Scores:   make(map[contracts.Domain]int, len(scores)),
		Details:  scores,
		Issues:   []string{},
		Warnings: []string{},
	}

	if len(scores) == 0 {
		return report
	}

	sum := 0
	for _, ds := range scores {
		report.Scores[ds.Domain] = ds.Score
		report.Issues = append(report.Issues, ds.Errors...)
		report.Warnings = append(report.Warnings, ds.Warnings...)
		sum += ds.Score
	}

	report.OverallScore = sum / len(scores)
	report.Passed = report.OverallScore >= PassThreshold
	return report
}

// Evaluate validates every applicable domain in reporting order and aggregates the result
func Evaluate(date string, p Payloads) *contracts.QualityReport {
	scores := make([]contracts.DomainScore, 0, len(contracts.Domains))
	for _, d := range contracts.Domains {
		if !p.Applicable(d) {
			continue
		}
		scores = append(scores, ValidateDomain(d, p))
	}
	return Aggregate(date, scores)
}
