package contracts

// IndexInfo describes a spot index the pipeline tracks
type IndexInfo struct {
	Code string
	Name string
}

// RequiredIndices are the canonical spot indices every market payload must carry
// ⭐ SSOT: 필수 지수 8종 (순서 고정)
var RequiredIndices = []IndexInfo{
	{Code: "sh000001", Name: "上证指数"},
	{Code: "sz399001", Name: "深证成指"},
	{Code: "sh000300", Name: "沪深300"},
	{Code: "sh000905", Name: "中证500"},
	{Code: "sh000852", Name: "中证1000"},
	{Code: "sh000016", Name: "上证50"},
	{Code: "sh000688", Name: "科创50"},
	{Code: "sz399006", Name: "创业板指"},
}

// IndexName returns the display name of a spot index code, or "" if untracked
func IndexName(code string) string {
	for _, idx := range RequiredIndices {
		if idx.Code == code {
			return idx.Name
		}
	}
	return ""
}

// MarketQuote is one spot index quote. Nil pointer fields were absent upstream.
type MarketQuote struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price,omitempty"`
	PrevClose     *float64 `json:"prev_close,omitempty"`
	Open          *float64 `json:"open,omitempty"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
}

// SpotIndex is the reduced view the basis engine consumes
type SpotIndex struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// SpotIndexes projects priced market quotes into a code → SpotIndex map.
// Quotes without a code or price are left out.
func SpotIndexes(quotes []MarketQuote) map[string]SpotIndex {
	out := make(map[string]SpotIndex, len(quotes))
	for _, q := range quotes {
		if q.Code == "" || q.Price == nil {
			continue
		}
		out[q.Code] = SpotIndex{Code: q.Code, Name: q.Name, Price: *q.Price}
	}
	return out
}

// Float returns a pointer to v (payload construction helper)
func Float(v float64) *float64 {
	return &v
}

// Value dereferences p, returning 0 when absent
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
