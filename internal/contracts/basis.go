package contracts

// BasisRecord is the basis/carry result for one (futures code, contract type) pair.
// Records are produced fresh per run and never mutated.
type BasisRecord struct {
	FuturesCode         string       `json:"index"`
	SpotIndexName       string       `json:"index_name"`
	ContractType        ContractType `json:"contract"`
	FuturesPrice        float64      `json:"futures_price"`
	SpotPrice           float64      `json:"spot_price"`
	Basis               float64      `json:"basis"`
	BasisPercent        float64      `json:"basis_percent"`
	AnnualizedBasis     float64      `json:"annualized_basis"`
	TradingDaysToExpiry int          `json:"trading_days"`
}

// IsDiscount reports futures trading below spot (贴水)
func (r BasisRecord) IsDiscount() bool {
	return r.Basis < 0
}
