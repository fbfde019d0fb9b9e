package quality

import (
	"fmt"
	"strings"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

var domainTitles = map[contracts.Domain]string{
	contracts.DomainMarket:  "行情数据",
	contracts.DomainFutures: "期货数据",
	contracts.DomainNews:    "新闻数据",
	contracts.DomainBasis:   "基差数据",
}

// Grade returns the verdict band for an overall score
func Grade(score int) string {
	switch {
	case score >= 90:
		return "优秀"
	case score >= PassThreshold:
		return "合格"
	case score >= 50:
		return "一般"
	default:
		return "较差，需要重新采集"
	}
}

// RenderText formats the report for terminals and chat messages
func RenderText(q *contracts.QualityReport) string {
	rule := strings.Repeat("━", 20)

	var b strings.Builder
	b.WriteString("📋 数据质量报告")
	if q.Date != "" {
		fmt.Fprintf(&b, " (%s)", q.Date)
	}
	b.WriteString("\n" + rule + "\n\n")

	for _, ds := range q.Details {
		title, ok := domainTitles[ds.Domain]
		if !ok {
			title = string(ds.Domain)
		}

		fmt.Fprintf(&b, "【%s】 %d分", title, ds.Score)
		switch ds.Domain {
		case contracts.DomainFutures:
			fmt.Fprintf(&b, " (%d/%d合约)", ds.Filled, ds.Expected)
		case contracts.DomainNews, contracts.DomainBasis:
			if ds.Count > 0 {
				fmt.Fprintf(&b, " (%d条)", ds.Count)
			}
		}
		b.WriteString("\n")

		if len(ds.Errors) > 0 {
			b.WriteString("  ❌ 问题:\n")
			for _, e := range ds.Errors {
				fmt.Fprintf(&b, "    - %s\n", e)
			}
		}
		if len(ds.Warnings) > 0 {
			b.WriteString("  ⚠️ 警告:\n")
			for _, w := range ds.Warnings {
				fmt.Fprintf(&b, "    - %s\n", w)
			}
		}
		if len(ds.Errors) == 0 && len(ds.Warnings) == 0 {
			b.WriteString("  ✅ 正常\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "总分: %d/100\n", q.OverallScore)

	mark := "✅"
	switch {
	case q.OverallScore < 50:
		mark = "❌"
	case q.OverallScore < PassThreshold:
		mark = "⚠️"
	}
	fmt.Fprintf(&b, "%s %s\n", mark, Grade(q.OverallScore))

	return b.String()
}
