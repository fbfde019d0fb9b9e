package contracts

import "time"

// Domain names a payload family checked by the quality gate
type Domain string

const (
	DomainMarket  Domain = "market"
	DomainFutures Domain = "futures"
	DomainNews    Domain = "news"
	DomainBasis   Domain = "basis"
)

// Domains is the fixed reporting order
var Domains = []Domain{DomainMarket, DomainFutures, DomainNews, DomainBasis}

// ValidationResult holds the ordered findings for one domain.
// Findings are data; validators never fail.
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether no errors were found
func (v ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}

// DomainScore is the scored outcome of one domain
type DomainScore struct {
	Domain   Domain   `json:"domain"`
	Score    int      `json:"score"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Count    int      `json:"count"`            // records seen
	Filled   int      `json:"filled,omitempty"` // futures: priced contracts
	Expected int      `json:"expected,omitempty"`
}

// QualityReport is the gate decision for one trading date
// ⭐ SSOT: 품질 게이트 결과 (overall < 70 → passed=false)
type QualityReport struct {
	Date         string         `json:"date"`
	Scores       map[Domain]int `json:"scores"`
	Details      []DomainScore  `json:"details"`
	OverallScore int            `json:"overall_score"`
	Passed       bool           `json:"passed"`
	Issues       []string       `json:"issues"`
	Warnings     []string       `json:"warnings"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Detail returns the scored outcome for d, if it contributed
func (q *QualityReport) Detail(d Domain) (DomainScore, bool) {
	for _, ds := range q.Details {
		if ds.Domain == d {
			return ds, true
		}
	}
	return DomainScore{}, false
}
