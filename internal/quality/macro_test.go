package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

func fullMacro() *contracts.MacroSnapshot {
	f := contracts.Float
	return &contracts.MacroSnapshot{
		Indicators: map[string]*contracts.MacroIndicator{
			"gdp":                 {Name: "中国GDP", Value: f(126.06), YoY: f(5.0), Period: "2024Q4"},
			"cpi":                 {Name: "中国CPI", Value: f(0.2), YoY: f(0.2), MoM: f(-0.7), Period: "2025-01"},
			"ppi":                 {Name: "中国PPI", Value: f(-2.3), YoY: f(-2.3), Period: "2025-01"},
			"pmi":                 {Name: "制造业PMI", Value: f(50.1), Period: "2025-02"},
			"retail":              {Name: "社会消费品零售总额", Value: f(4.0), YoY: f(3.5)},
			"fixed_investment":    {Name: "全国固定资产投资", YoY: f(3.2)},
			"industrial_addition": {Name: "工业增加值", YoY: f(5.8)},
			"exports":             {Name: "出口金额", Value: f(3345), YoY: f(10.3)},
			"imports":             {Name: "进口金额", Value: f(2215), YoY: f(1.5)},
			"m2":                  {Name: "M2货币供应", Value: f(318), YoY: f(7.3)},
			"real_estate":         {Name: "房地产核心指标", InvestmentYoY: f(-13.9)},
		},
		CentralBank: []contracts.PolicyRate{
			{Name: "7天逆回购利率", Value: "1.50%"},
			{Name: "1年期LPR", Value: "3.45%"},
			{Name: "5年期以上LPR", Value: "3.95%"},
			{Name: "MLF利率(1年)", Value: "2.50%"},
		},
	}
}

func TestValidateMacro_Complete(t *testing.T) {
	r := ValidateMacro("2026-01-05", fullMacro(), nil)

	assert.Equal(t, 100, r.Completeness.Score)
	assert.Equal(t, 12, r.Completeness.TotalFields)
	assert.Equal(t, 12, r.Completeness.FilledFields)
	assert.Equal(t, 100, r.Ranges.Score)
	assert.Equal(t, 100, r.History.Score)

	assert.Equal(t, 100, r.Score)
	assert.True(t, r.Passed)
	assert.Empty(t, r.Issues)
	assert.Equal(t, []string{"历史数据不足"}, r.Warnings)
}

func TestCheckMacroCompleteness(t *testing.T) {
	t.Run("missing fields cost 20 each", func(t *testing.T) {
		s := fullMacro()
		delete(s.Indicators, "ppi")
		s.Indicators["m2"] = &contracts.MacroIndicator{}
		s.CentralBank = nil

		c := CheckMacroCompleteness(s)
		assert.Equal(t, []string{"缺失字段: ppi", "缺失字段: central_bank", "缺失字段: m2"}, c.Issues)
		assert.Empty(t, c.Warnings)
		assert.Equal(t, 40, c.Score)
		assert.Equal(t, 9, c.FilledFields)
	})

	t.Run("thin fields cost 5 each", func(t *testing.T) {
		s := fullMacro()
		s.Indicators["gdp"].Value = nil
		s.Indicators["cpi"].YoY = contracts.Float(0)
		s.CentralBank = s.CentralBank[:2]

		c := CheckMacroCompleteness(s)
		assert.Empty(t, c.Issues)
		assert.Equal(t, []string{"GDP数值缺失", "CPI同比缺失", "央行数据不足"}, c.Warnings)
		assert.Equal(t, 85, c.Score)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		c := CheckMacroCompleteness(nil)
		assert.Equal(t, []string{"数据为空"}, c.Issues)
		assert.Equal(t, 0, c.Score)
	})

	t.Run("score floors at zero", func(t *testing.T) {
		c := CheckMacroCompleteness(&contracts.MacroSnapshot{})
		assert.Len(t, c.Issues, 12)
		assert.Equal(t, 0, c.Score)
	})
}

func TestCheckMacroRanges(t *testing.T) {
	s := fullMacro()
	s.Indicators["pmi"].Value = contracts.Float(55)
	s.Indicators["gdp"].Value = contracts.Float(150)
	s.Indicators["real_estate"].InvestmentYoY = contracts.Float(-31)

	c := CheckMacroRanges(s)
	require.Len(t, c.Issues, 3)
	assert.Equal(t, "gdp value异常: 150万亿元 (合理范围: 110 ~ 140)", c.Issues[0])
	assert.Equal(t, "pmi value异常: 55 (合理范围: 48 ~ 52)", c.Issues[1])
	assert.Contains(t, c.Issues[2], "real_estate investment_yoy异常: -31%")
	assert.Equal(t, 55, c.Score)

	// bounds are inclusive
	s = fullMacro()
	s.Indicators["pmi"].Value = contracts.Float(52)
	s.Indicators["cpi"].YoY = contracts.Float(-2)
	assert.Empty(t, CheckMacroRanges(s).Issues)
}

func TestCheckMacroHistory(t *testing.T) {
	prev := fullMacro()
	prev.Indicators["cpi"].YoY = contracts.Float(0)

	curr := fullMacro()
	curr.Indicators["m2"].YoY = contracts.Float(18)
	curr.Indicators["cpi"].YoY = contracts.Float(4.5) // previous cpi unreported, not compared

	c := CheckMacroHistory(curr, prev)
	require.Len(t, c.Issues, 1)
	assert.Equal(t, "m2环比变化过大: 18% vs 7.3% (变化10.7%)", c.Issues[0])
	assert.Empty(t, c.Warnings)
	assert.Equal(t, 90, c.Score)

	r := ValidateMacro("2026-01-05", curr, prev)
	assert.Equal(t, 96, r.Score)
	assert.True(t, r.Passed)
	assert.Equal(t, c.Issues, r.Issues)
}

func TestValidateMacro_FloorsMeanAndFails(t *testing.T) {
	r := ValidateMacro("2026-01-05", nil, nil)
	assert.Equal(t, 0, r.Completeness.Score)
	assert.Equal(t, 66, r.Score)
	assert.False(t, r.Passed)
	assert.Equal(t, []string{"数据为空"}, r.Issues)
}

func TestRenderMacroText(t *testing.T) {
	r := &contracts.MacroQualityReport{
		Date:         "2026-01-05",
		PreviousDate: "2025-12-05",
		Score:        66,
		Issues:       []string{"a", "b", "c", "d", "e", "f", "g"},
		Warnings:     []string{"历史数据不足"},
	}

	text := RenderMacroText(r)
	assert.Contains(t, text, "质量评分: 66/100")
	assert.Contains(t, text, "对比: 2025-12-05")
	assert.Contains(t, text, "⚠️ 一般")
	assert.Contains(t, text, "  - e\n")
	assert.NotContains(t, text, "  - f\n")
	assert.Equal(t, 6, strings.Count(text, "  - "))

	clean := RenderMacroText(ValidateMacro("2026-01-05", fullMacro(), fullMacro()))
	assert.Contains(t, clean, "✅ 优秀")
	assert.Contains(t, clean, "无异常")
}
