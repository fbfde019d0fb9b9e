// Package reporter renders an analysis as a Markdown daily brief or a compact chat message.
package reporter

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/wonny/ashare-daily/backend/internal/analyzer"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// Format selects the report rendering
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatBrief    Format = "brief"
)

// ParseFormat accepts markdown (default when empty) or brief
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatBrief:
		return FormatBrief, nil
	default:
		return "", fmt.Errorf("unknown report format %q (markdown|brief)", s)
	}
}

const (
	briefRows      = 5
	briefHeadlines = 3
	briefTitleLen  = 40
	divider        = "━━━━━━━━━━━━━━━━━━━━"
	footer         = "本报告由系统自动生成"
)

// Render dispatches on format
func Render(a *analyzer.Analysis, format Format) string {
	if format == FormatBrief {
		return Brief(a)
	}
	return Markdown(a)
}

// Markdown renders the full daily brief
// ⭐ SSOT: 일일 리포트 포맷
func Markdown(a *analyzer.Analysis) string {
	var b strings.Builder

	b.WriteString("# 📈 市场每日简报\n")
	fmt.Fprintf(&b, "**日期**: %s\n\n---\n\n", a.Date)

	// 一、行情分析
	b.WriteString("## 一、行情分析\n\n")
	b.WriteString("### 1.1 涨跌幅排行\n\n")
	b.WriteString("| 指数 | 最新价 | 涨跌幅 |\n")
	b.WriteString("|------|--------|--------|\n")
	for _, c := range a.Market.Daily {
		fmt.Fprintf(&b, "| %s | %.2f | %+.2f%% |\n", c.Name, c.Price, c.ChangePercent)
	}
	b.WriteString("\n### 1.2 成交量\n\n")
	fmt.Fprintf(&b, "- 趋势: %s\n", a.Market.Volume.Trend)
	fmt.Fprintf(&b, "- 解读: %s\n\n", a.Market.Volume.Interpretation)

	writeBasisTable(&b, a.Basis)
	for _, w := range a.Warnings {
		fmt.Fprintf(&b, "> ⚠️ %s\n\n", w)
	}

	// 二、新闻分析
	b.WriteString("---\n\n## 二、新闻分析\n\n")
	b.WriteString("### 2.1 新闻概况\n\n")
	fmt.Fprintf(&b, "- 总数: %d 条\n", a.News.Count)
	fmt.Fprintf(&b, "- 市场情绪: **%s**\n\n", a.News.Sentiment)
	b.WriteString("### 2.2 重要新闻\n\n")
	if len(a.News.HighImportance) == 0 {
		b.WriteString("*暂无高重要性新闻*\n")
	}
	for i, item := range a.News.HighImportance {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, item.Title)
		fmt.Fprintf(&b, "- 分类: %s\n\n", category(item))
	}
	b.WriteString("\n")

	// 三、综合结论
	b.WriteString("---\n\n## 三、综合结论\n\n")
	b.WriteString("### 3.1 市场判断\n\n")
	fmt.Fprintf(&b, "%s\n\n", a.Conclusion.MarketView)
	b.WriteString("### 3.2 风险提示\n\n")
	writeList(&b, a.Conclusion.RiskAlerts, "无明显风险提示")
	b.WriteString("\n### 3.3 投资建议\n\n")
	writeList(&b, a.Conclusion.Recommendations, "建议保持观望")

	fmt.Fprintf(&b, "\n---\n\n*%s*\n", footer)
	return b.String()
}

func writeBasisTable(b *strings.Builder, records []contracts.BasisRecord) {
	if len(records) == 0 {
		return
	}

	b.WriteString("### 1.3 基差分析\n\n")
	b.WriteString("| 指数 | 合约 | 期货价 | 现货价 | 基差 | 年化基差率 | 剩余交易日 |\n")
	b.WriteString("|------|------|--------|--------|------|------------|------------|\n")
	for _, r := range records {
		arrow := Arrow(r)
		fmt.Fprintf(b, "| %s | %s | %.2f | %.2f | %s%.2f | %s%.2f%% | %d |\n",
			r.SpotIndexName, r.ContractType.Label(), r.FuturesPrice, r.SpotPrice,
			arrow, math.Abs(r.Basis), arrow, math.Abs(r.AnnualizedBasis), r.TradingDaysToExpiry)
	}
	b.WriteString("\n> ↑ 升水 / ↓ 贴水，年化基差率按 365 天折算\n\n")
}

// Brief renders the compact chat message
func Brief(a *analyzer.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📈 市场每日简报 %s\n\n%s\n\n", a.Date, divider)

	b.WriteString("## 一、行情分析\n\n### 涨跌幅排行\n\n")
	for _, c := range head(a.Market.Daily, briefRows) {
		fmt.Fprintf(&b, "%s: %.2f (%+.2f%%)\n", c.Name, c.Price, c.ChangePercent)
	}

	if len(a.Basis) > 0 {
		b.WriteString("\n### 基差分析\n\n")
		for _, r := range head(a.Basis, briefRows) {
			fmt.Fprintf(&b, "%s%s: %s%.2f (%+.2f%%)\n",
				r.FuturesCode, r.ContractType.Label(), Arrow(r), math.Abs(r.Basis), r.AnnualizedBasis)
		}
	}

	fmt.Fprintf(&b, "\n%s\n\n## 二、新闻分析\n\n", divider)
	fmt.Fprintf(&b, "总数: %d条 | 市场情绪: %s\n\n", a.News.Count, a.News.Sentiment)
	for i, item := range head(a.News.HighImportance, briefHeadlines) {
		fmt.Fprintf(&b, "%d. %s\n   [%s]\n", i+1, clip(item.Title, briefTitleLen), category(item))
	}

	fmt.Fprintf(&b, "\n%s\n\n## 三、综合结论\n\n", divider)
	fmt.Fprintf(&b, "判断: %s\n", a.Conclusion.MarketView)
	for _, rec := range a.Conclusion.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	fmt.Fprintf(&b, "\n%s\n\n🤖 %s\n", divider, footer)
	return b.String()
}

// Arrow is ↓ for a discount and ↑ otherwise
func Arrow(r contracts.BasisRecord) string {
	if r.IsDiscount() {
		return "↓"
	}
	return "↑"
}

func writeList(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "- %s\n", empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func category(item contracts.NewsItem) string {
	if item.Category == "" {
		return contracts.CategoryOther
	}
	return item.Category
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
