// Package quality validates collected payloads and scores them into a gate decision.
//
// Validators are pure: findings are returned as data, never as errors.
package quality

import (
	"fmt"
	"math"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// Sanity bounds
const (
	MaxAbsChangePercent   = 20.0   // 涨跌幅
	MaxAbsBasis           = 1000.0 // 基差 points
	MaxAbsAnnualizedBasis = 50.0   // 年化基差 %
	MinNewsItems          = 5
)

// ValidateMarket checks spot index quotes
func ValidateMarket(quotes []contracts.MarketQuote) contracts.ValidationResult {
	var r contracts.ValidationResult
	if len(quotes) == 0 {
		r.Errors = append(r.Errors, "行情数据为空")
		return r
	}

	present := make(map[string]bool, len(quotes))
	for _, q := range quotes {
		if q.Code != "" {
			present[q.Code] = true
		}
	}
	for _, idx := range contracts.RequiredIndices {
		if !present[idx.Code] {
			r.Errors = append(r.Errors, fmt.Sprintf("缺少指数: %s (%s)", idx.Code, idx.Name))
		}
	}

	for _, q := range quotes {
		label := q.Code
		if label == "" {
			label = "?"
		}

		if q.Code == "" {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: 缺少字段: code", label))
		}
		if q.Name == "" {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: 缺少字段: name", label))
		}
		if q.Price == nil {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: 缺少字段: price", label))
		} else if *q.Price <= 0 {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: 价格异常: %.2f", label, *q.Price))
		}
		if q.ChangePercent == nil {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: 缺少字段: change_percent", label))
		} else if math.Abs(*q.ChangePercent) > MaxAbsChangePercent {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: 涨跌幅异常: %.2f%%", label, *q.ChangePercent))
		}
	}

	return r
}

// ValidateFutures checks the four canonical futures products.
// An absent contract is a warning; a present contract without a price is an error.
func ValidateFutures(board contracts.FuturesBoard) contracts.ValidationResult {
	var r contracts.ValidationResult
	if len(board) == 0 {
		r.Errors = append(r.Errors, "期货数据为空")
		return r
	}

	for _, p := range contracts.FuturesProducts {
		slots, ok := board[p.Code]
		if !ok {
			r.Errors = append(r.Errors, fmt.Sprintf("缺少期货数据: %s", p.Code))
			continue
		}

		for _, ct := range p.Contracts {
			q, present := slots[ct]
			if !present {
				r.Warnings = append(r.Warnings, fmt.Sprintf("缺少 %s %s 合约数据", p.Code, ct.Label()))
				continue
			}
			if q == nil || q.Price == nil || *q.Price <= 0 {
				r.Errors = append(r.Errors, fmt.Sprintf("缺少 %s %s 价格", p.Code, ct.Label()))
			}
		}
	}

	return r
}

// ValidateNews checks headline completeness and categories
func ValidateNews(items []contracts.NewsItem) contracts.ValidationResult {
	var r contracts.ValidationResult
	if len(items) == 0 {
		r.Errors = append(r.Errors, "新闻数据为空")
		return r
	}

	if len(items) < MinNewsItems {
		r.Warnings = append(r.Warnings, fmt.Sprintf("新闻数量过少: %d条", len(items)))
	}

	for _, item := range items {
		if item.Title == "" {
			r.Errors = append(r.Errors, "缺少标题")
		}
		if item.Category == "" {
			r.Errors = append(r.Errors, "缺少分类")
		} else if !contracts.IsNewsCategory(item.Category) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("未知分类: %s", item.Category))
		}
	}

	return r
}

// ValidateBasis checks computed basis records
func ValidateBasis(records []contracts.BasisRecord) contracts.ValidationResult {
	var r contracts.ValidationResult

	for _, rec := range records {
		if rec.FuturesCode == "" {
			r.Errors = append(r.Errors, "缺少指数代码")
		}
		if rec.ContractType == "" {
			r.Errors = append(r.Errors, "缺少合约类型")
		}
		if rec.FuturesPrice == 0 {
			r.Errors = append(r.Errors, "缺少期货价格")
		}
		if rec.SpotPrice == 0 {
			r.Errors = append(r.Errors, "缺少现货价格")
		}

		if math.Abs(rec.Basis) > MaxAbsBasis {
			r.Warnings = append(r.Warnings, fmt.Sprintf("基差绝对值较大: %.2f", rec.Basis))
		}
		if math.Abs(rec.AnnualizedBasis) > MaxAbsAnnualizedBasis {
			r.Warnings = append(r.Warnings, fmt.Sprintf("年化基差异常: %.2f%%", rec.AnnualizedBasis))
		}
	}

	return r
}
