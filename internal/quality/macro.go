package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// MacroRange bounds the headline figure of an indicator
type MacroRange struct {
	Field string // value | yoy | investment_yoy
	Min   float64
	Max   float64
	Unit  string
}

// ⭐ SSOT: 宏观指标合理范围 (이상치 판정)
var MacroRanges = map[string]MacroRange{
	"gdp":              {Field: "value", Min: 110, Max: 140, Unit: "万亿元"},
	"cpi":              {Field: "yoy", Min: -2, Max: 5, Unit: "%"},
	"ppi":              {Field: "yoy", Min: -5, Max: 5, Unit: "%"},
	"pmi":              {Field: "value", Min: 48, Max: 52},
	"m2":               {Field: "value", Min: 250, Max: 350, Unit: "万亿元"},
	"fixed_investment": {Field: "yoy", Min: -5, Max: 15, Unit: "%"},
	"real_estate":      {Field: "investment_yoy", Min: -30, Max: 10, Unit: "%"},
}

// macroRangeOrder fixes the order findings are reported in
var macroRangeOrder = []string{"gdp", "cpi", "ppi", "pmi", "m2", "fixed_investment", "real_estate"}

// compared against the previous snapshot
var macroHistoryFields = []string{"gdp", "cpi", "ppi", "m2"}

// Macro check parameters
const (
	MinPolicyRates      = 3
	MaxMacroYoYJump     = 10.0 // percentage points between snapshots
	macroMissingCost    = 20
	macroWarningCost    = 5
	macroOutOfRangeCost = 15
	macroJumpCost       = 10
)

func macroField(ind *contracts.MacroIndicator, name string) *float64 {
	if ind == nil {
		return nil
	}
	switch name {
	case "value":
		return ind.Value
	case "yoy":
		return ind.YoY
	case "investment_yoy":
		return ind.InvestmentYoY
	}
	return nil
}

// zero counts as unreported, as in the published tables
func reported(v *float64) bool {
	return v != nil && *v != 0
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	return score
}

// CheckMacroCompleteness reports missing required fields.
// Each missing field costs 20 points, each warning 5.
func CheckMacroCompleteness(s *contracts.MacroSnapshot) contracts.MacroCheck {
	c := contracts.MacroCheck{TotalFields: len(contracts.RequiredMacroFields)}
	if s == nil {
		c.Issues = append(c.Issues, "数据为空")
		return c
	}

	for _, key := range contracts.RequiredMacroFields {
		if key == contracts.MacroCentralBank {
			if len(s.CentralBank) == 0 {
				c.Issues = append(c.Issues, "缺失字段: "+key)
				continue
			}
		} else if s.Indicator(key).Empty() {
			c.Issues = append(c.Issues, "缺失字段: "+key)
			continue
		}
		c.FilledFields++
	}

	if gdp := s.Indicator("gdp"); !gdp.Empty() && !reported(gdp.Value) {
		c.Warnings = append(c.Warnings, "GDP数值缺失")
	}
	if cpi := s.Indicator("cpi"); !cpi.Empty() && !reported(cpi.YoY) {
		c.Warnings = append(c.Warnings, "CPI同比缺失")
	}
	if n := len(s.CentralBank); n > 0 && n < MinPolicyRates {
		c.Warnings = append(c.Warnings, "央行数据不足")
	}

	c.Score = clampScore(100 - len(c.Issues)*macroMissingCost - len(c.Warnings)*macroWarningCost)
	return c
}

// CheckMacroRanges flags headline figures outside their plausible band
func CheckMacroRanges(s *contracts.MacroSnapshot) contracts.MacroCheck {
	var c contracts.MacroCheck
	for _, key := range macroRangeOrder {
		rg := MacroRanges[key]
		v := macroField(s.Indicator(key), rg.Field)
		if v == nil {
			continue
		}
		if *v < rg.Min || *v > rg.Max {
			c.Issues = append(c.Issues, fmt.Sprintf("%s %s异常: %g%s (合理范围: %g ~ %g)",
				key, rg.Field, *v, rg.Unit, rg.Min, rg.Max))
		}
	}
	c.Score = clampScore(100 - len(c.Issues)*macroOutOfRangeCost)
	return c
}

// CheckMacroHistory compares year-on-year figures with the previous snapshot.
// Without a previous snapshot the check passes with a warning.
func CheckMacroHistory(current, previous *contracts.MacroSnapshot) contracts.MacroCheck {
	var c contracts.MacroCheck
	if previous == nil {
		c.Warnings = append(c.Warnings, "历史数据不足")
		c.Score = 100
		return c
	}

	for _, key := range macroHistoryFields {
		curr := macroField(current.Indicator(key), "yoy")
		prev := macroField(previous.Indicator(key), "yoy")
		if !reported(curr) || !reported(prev) {
			continue
		}
		if diff := math.Abs(*curr - *prev); diff > MaxMacroYoYJump {
			c.Issues = append(c.Issues, fmt.Sprintf("%s环比变化过大: %g%% vs %g%% (变化%.1f%%)",
				key, *curr, *prev, diff))
		}
	}
	c.Score = clampScore(100 - len(c.Issues)*macroJumpCost)
	return c
}

// ValidateMacro runs every macro check. previous may be nil.
// score = floor(mean of the three check scores), passed = score >= PassThreshold.
func ValidateMacro(date string, current, previous *contracts.MacroSnapshot) *contracts.MacroQualityReport {
	r := &contracts.MacroQualityReport{
		Date:         date,
		Completeness: CheckMacroCompleteness(current),
		Ranges:       CheckMacroRanges(current),
		History:      CheckMacroHistory(current, previous),
	}

	r.Score = (r.Completeness.Score + r.Ranges.Score + r.History.Score) / 3
	r.Passed = r.Score >= PassThreshold

	r.Issues = []string{}
	r.Warnings = []string{}
	for _, c := range []contracts.MacroCheck{r.Completeness, r.Ranges, r.History} {
		r.Issues = append(r.Issues, c.Issues...)
		r.Warnings = append(r.Warnings, c.Warnings...)
	}
	return r
}

// maxMacroFindings caps each finding list in the text summary
const maxMacroFindings = 5

// RenderMacroText formats a macro quality report for terminals
func RenderMacroText(r *contracts.MacroQualityReport) string {
	var b strings.Builder
	b.WriteString("📋 宏观经济数据质量报告\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "日期: %s\n", r.Date)
	if r.PreviousDate != "" {
		fmt.Fprintf(&b, "对比: %s\n", r.PreviousDate)
	}
	fmt.Fprintf(&b, "质量评分: %d/100\n", r.Score)

	switch {
	case r.Score >= 90:
		b.WriteString("状态: ✅ 优秀\n")
	case r.Score >= PassThreshold:
		b.WriteString("状态: ✅ 合格\n")
	case r.Score >= 50:
		b.WriteString("状态: ⚠️ 一般\n")
	default:
		b.WriteString("状态: ❌ 需关注\n")
	}

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s\n", title)
		for i, item := range items {
			if i == maxMacroFindings {
				break
			}
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	writeList("❌ 问题:", r.Issues)
	writeList("⚠️ 警告:", r.Warnings)

	if len(r.Issues) == 0 && len(r.Warnings) == 0 {
		b.WriteString("\n✅ 数据质量良好，无异常\n")
	}
	return b.String()
}
