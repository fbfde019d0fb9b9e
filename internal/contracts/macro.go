package contracts

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MacroIndicator is one published macro statistic. Which numeric field
// carries the headline figure depends on the indicator.
type MacroIndicator struct {
	Name          string   `json:"name" yaml:"name"`
	Value         *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	YoY           *float64 `json:"yoy,omitempty" yaml:"yoy,omitempty"`
	MoM           *float64 `json:"mom,omitempty" yaml:"mom,omitempty"`
	InvestmentYoY *float64 `json:"investment_yoy,omitempty" yaml:"investment_yoy,omitempty"` // 房地产投资同比
	Period        string   `json:"period,omitempty" yaml:"period,omitempty"`
	Source        string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// Empty reports whether the indicator carries nothing at all
func (m *MacroIndicator) Empty() bool {
	return m == nil || (m.Name == "" && m.Value == nil && m.YoY == nil && m.MoM == nil &&
		m.InvestmentYoY == nil && m.Period == "")
}

// PolicyRate is a central bank rate as published (e.g. "1.50%")
type PolicyRate struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Date   string `json:"date,omitempty" yaml:"date,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// MacroSnapshot is the macro payload of one date
type MacroSnapshot struct {
	Indicators  map[string]*MacroIndicator `json:"indicators" yaml:"indicators"`
	CentralBank []PolicyRate               `json:"central_bank" yaml:"central_bank"`
}

// Indicator returns the named indicator, nil if absent
func (s *MacroSnapshot) Indicator(key string) *MacroIndicator {
	if s == nil {
		return nil
	}
	return s.Indicators[key]
}

// MacroCentralBank is the required-field key of the policy rate list
const MacroCentralBank = "central_bank"

// ⭐ SSOT: 宏观数据必需字段
var RequiredMacroFields = []string{
	"gdp", "cpi", "ppi", "pmi",
	"retail", "fixed_investment",
	"industrial_addition", "exports", "imports",
	MacroCentralBank, "m2", "real_estate",
}

// MacroCheck is the outcome of one macro check
type MacroCheck struct {
	Score        int      `json:"score"`
	Issues       []string `json:"issues"`
	Warnings     []string `json:"warnings"`
	TotalFields  int      `json:"total_fields,omitempty"`
	FilledFields int      `json:"filled_fields,omitempty"`
}

// MacroQualityReport combines completeness, range and history checks
type MacroQualityReport struct {
	Date         string     `json:"date"`
	Score        int        `json:"score"`
	Passed       bool       `json:"passed"`
	Completeness MacroCheck `json:"completeness"`
	Ranges       MacroCheck `json:"ranges"`
	History      MacroCheck `json:"history"`
	PreviousDate string     `json:"previous_date,omitempty"`
	Issues       []string   `json:"issues"`
	Warnings     []string   `json:"warnings"`
}

// ParseMacroSnapshot decodes a YAML or JSON macro snapshot.
// Unknown fields are rejected.
func ParseMacroSnapshot(data []byte) (*MacroSnapshot, error) {
	var s MacroSnapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode macro snapshot: %w", err)
	}
	if len(s.Indicators) == 0 && len(s.CentralBank) == 0 {
		return nil, fmt.Errorf("decode macro snapshot: no indicators")
	}
	return &s, nil
}
