package contracts

import "sort"

// FuturesSpec links a stock-index futures product to its underlying spot index
type FuturesSpec struct {
	Code      string
	SpotCode  string
	Contracts []ContractType // expected listed maturities
}

// FuturesProducts are the canonical CFFEX index futures, in discovery order
// ⭐ SSOT: 期货-现货 매핑 (IH 는 隔季 없음)
var FuturesProducts = []FuturesSpec{
	{Code: "IF", SpotCode: "sh000300", Contracts: []ContractType{CurrentMonth, NextQuarter, FarQuarter}},
	{Code: "IC", SpotCode: "sh000905", Contracts: []ContractType{CurrentMonth, NextQuarter, FarQuarter}},
	{Code: "IM", SpotCode: "sh000852", Contracts: []ContractType{CurrentMonth, NextQuarter, FarQuarter}},
	{Code: "IH", SpotCode: "sh000016", Contracts: []ContractType{CurrentMonth, NextQuarter}},
}

// FuturesSpotCode returns the underlying spot index code for a futures product
func FuturesSpotCode(code string) (string, bool) {
	for _, p := range FuturesProducts {
		if p.Code == code {
			return p.SpotCode, true
		}
	}
	return "", false
}

// FuturesQuote is one futures contract quote. Nil pointer fields were absent upstream.
type FuturesQuote struct {
	Code          string       `json:"code"`
	ContractType  ContractType `json:"contract_type"`
	Contract      string       `json:"contract,omitempty"` // exchange symbol, e.g. IF2611
	Price         *float64     `json:"price,omitempty"`
	Open          *float64     `json:"open,omitempty"`
	High          *float64     `json:"high,omitempty"`
	Low           *float64     `json:"low,omitempty"`
	Volume        *float64     `json:"volume,omitempty"`
	Amount        *float64     `json:"amount,omitempty"`
	Change        *float64     `json:"change,omitempty"`
	ChangePercent *float64     `json:"change_percent,omitempty"`
	Settlement    *float64     `json:"settlement,omitempty"`
}

// FuturesBoard maps futures code → contract type → quote.
// A present key with a nil quote means the slot was queried but came back empty;
// an absent key means the contract was not collected at all.
type FuturesBoard map[string]map[ContractType]*FuturesQuote

// Set stores q under its code and contract type
func (b FuturesBoard) Set(code string, ct ContractType, q *FuturesQuote) {
	if b[code] == nil {
		b[code] = make(map[ContractType]*FuturesQuote, len(ContractTypes))
	}
	b[code][ct] = q
}

// Codes returns the board's futures codes in discovery order:
// canonical products first, then any others sorted lexicographically.
func (b FuturesBoard) Codes() []string {
	codes := make([]string, 0, len(b))
	seen := make(map[string]bool, len(b))
	for _, p := range FuturesProducts {
		if _, ok := b[p.Code]; ok {
			codes = append(codes, p.Code)
			seen[p.Code] = true
		}
	}

	var extra []string
	for code := range b {
		if !seen[code] {
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)

	return append(codes, extra...)
}
