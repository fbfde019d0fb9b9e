// Package analyzer turns a day's payloads into market, basis and news views
// plus a short conclusion.
package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// Market sentiment labels
const (
	SentimentBullish = "偏多"
	SentimentBearish = "偏空"
	SentimentNeutral = "中性"
)

// sentimentMargin is how many more hits one side needs to tip the sentiment
const sentimentMargin = 2

// highlightLimit caps the high-importance headline list
const highlightLimit = 5

var (
	positiveKeywords = []string{"利好", "上涨", "涨停", "突破", "增长", "反弹", "大涨", "看涨"}
	negativeKeywords = []string{"利空", "下跌", "跌停", "回落", "下滑", "大跌", "看跌", "风险"}
)

// BasisComputer produces basis records from spot and futures inputs
type BasisComputer interface {
	Compute(spot map[string]contracts.SpotIndex, board contracts.FuturesBoard, asOf time.Time) ([]contracts.BasisRecord, error)
}

// CoverageChecker reports expiry years the holiday table has no entry for
type CoverageChecker interface {
	UncoveredExpiryYears(from time.Time) []int
}

// Inputs are the stored payloads of one trading day
type Inputs struct {
	Market  []contracts.MarketQuote
	Futures contracts.FuturesBoard
	News    []contracts.NewsItem
}

// MarketChange is one row of the daily change ranking
type MarketChange struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

// VolumeTrend summarises turnover
type VolumeTrend struct {
	Trend          string  `json:"trend"`
	Interpretation string  `json:"interpretation"`
	AvgVolume      float64 `json:"avg_volume"`
}

// MarketAnalysis holds the change ranking and volume view
type MarketAnalysis struct {
	Daily  []MarketChange `json:"daily"`
	Volume VolumeTrend    `json:"volume"`
}

// NewsAnalysis summarises the day's headlines
type NewsAnalysis struct {
	Count          int                  `json:"count"`
	Summary        string               `json:"summary"`
	HighImportance []contracts.NewsItem `json:"high_importance"`
	Categories     map[string]int       `json:"categories"`
	Sentiment      string               `json:"sentiment"`
}

// Conclusion is the combined view
type Conclusion struct {
	MarketView      string   `json:"market_view"`
	RiskAlerts      []string `json:"risk_alerts"`
	Recommendations []string `json:"recommendations"`
}

// Analysis is the persisted analysis payload
type Analysis struct {
	Date       string                  `json:"date"`
	Market     MarketAnalysis          `json:"market"`
	Basis      []contracts.BasisRecord `json:"basis"`
	News       NewsAnalysis            `json:"news"`
	Conclusion Conclusion              `json:"conclusion"`
	Warnings   []string                `json:"warnings,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}

// Analyzer runs the daily analysis
// ⭐ SSOT: 일일 분석 로직은 여기서만
type Analyzer struct {
	engine   BasisComputer
	coverage CoverageChecker
	logger   *logger.Logger
	now      func() time.Time
}

// New creates an analyzer over a basis engine
func New(engine BasisComputer, log *logger.Logger) *Analyzer {
	return &Analyzer{
		engine: engine,
		logger: log.WithComponent("analyzer"),
		now:    time.Now,
	}
}

// WithCoverage warns when days to expiry cross a year the holiday table lacks
func (a *Analyzer) WithCoverage(c CoverageChecker) *Analyzer {
	a.coverage = c
	return a
}

// CalendarWarnings lists the uncovered expiry years seen from date
func (a *Analyzer) CalendarWarnings(date time.Time) []string {
	if a.coverage == nil {
		return nil
	}
	var out []string
	for _, y := range a.coverage.UncoveredExpiryYears(date) {
		out = append(out, fmt.Sprintf("交易日历未覆盖%d年，到期天数仅按周末计算", y))
	}
	return out
}

// Analyze builds the full analysis for date
func (a *Analyzer) Analyze(date time.Time, in Inputs) (*Analysis, error) {
	records, err := a.Basis(date, in.Market, in.Futures)
	if err != nil {
		return nil, err
	}

	market := AnalyzeMarket(in.Market)
	news := AnalyzeNews(in.News)

	result := &Analysis{
		Date:       date.Format(contracts.DateLayout),
		Market:     market,
		Basis:      records,
		News:       news,
		Conclusion: Conclude(records, news),
		Warnings:   a.CalendarWarnings(date),
		Timestamp:  a.now(),
	}

	a.logger.WithFields(map[string]interface{}{
		"date":      result.Date,
		"indices":   len(market.Daily),
		"basis":     len(records),
		"news":      news.Count,
		"sentiment": news.Sentiment,
	}).Info("Analysis completed")

	return result, nil
}

// Basis runs the basis engine. Missing spot or futures input yields no records.
func (a *Analyzer) Basis(date time.Time, market []contracts.MarketQuote, board contracts.FuturesBoard) ([]contracts.BasisRecord, error) {
	if len(market) == 0 || len(board) == 0 {
		return []contracts.BasisRecord{}, nil
	}
	records, err := a.engine.Compute(contracts.SpotIndexes(market), board, date)
	if err != nil {
		return nil, fmt.Errorf("compute basis: %w", err)
	}
	if a.coverage != nil {
		for _, y := range a.coverage.UncoveredExpiryYears(date) {
			a.logger.WithFields(map[string]interface{}{
				"date": date.Format(contracts.DateLayout),
				"year": y,
			}).Warn("Holiday table does not cover expiry year")
		}
	}
	return records, nil
}

// AnalyzeMarket ranks quotes by change percent, highest first
func AnalyzeMarket(quotes []contracts.MarketQuote) MarketAnalysis {
	if len(quotes) == 0 {
		return MarketAnalysis{
			Daily:  []MarketChange{},
			Volume: VolumeTrend{Trend: "数据不足", Interpretation: "需要更多历史数据"},
		}
	}

	daily := make([]MarketChange, 0, len(quotes))
	var totalVolume float64
	for _, q := range quotes {
		daily = append(daily, MarketChange{
			Code:          q.Code,
			Name:          q.Name,
			Price:         contracts.Value(q.Price),
			ChangePercent: contracts.Value(q.ChangePercent),
		})
		totalVolume += contracts.Value(q.Volume)
	}
	sort.SliceStable(daily, func(i, j int) bool {
		return daily[i].ChangePercent > daily[j].ChangePercent
	})

	avg := totalVolume / float64(len(quotes))
	volume := VolumeTrend{Trend: "数据不足", Interpretation: "需要更多历史数据", AvgVolume: avg}
	if avg > 0 {
		volume.Trend = "正常"
		volume.Interpretation = "成交量处于正常水平"
	}

	return MarketAnalysis{Daily: daily, Volume: volume}
}

// AnalyzeNews counts headlines, picks the high-importance ones and judges sentiment
func AnalyzeNews(items []contracts.NewsItem) NewsAnalysis {
	if len(items) == 0 {
		return NewsAnalysis{
			Summary:        "无新闻数据",
			HighImportance: []contracts.NewsItem{},
			Categories:     map[string]int{},
			Sentiment:      SentimentNeutral,
		}
	}

	high := make([]contracts.NewsItem, 0, highlightLimit)
	categories := make(map[string]int)
	for _, item := range items {
		if item.Importance == contracts.ImportanceHigh && len(high) < highlightLimit {
			high = append(high, item)
		}
		cat := item.Category
		if cat == "" {
			cat = contracts.CategoryOther
		}
		categories[cat]++
	}

	return NewsAnalysis{
		Count:          len(items),
		Summary:        fmt.Sprintf("共%d条新闻", len(items)),
		HighImportance: high,
		Categories:     categories,
		Sentiment:      Sentiment(items),
	}
}

// Sentiment counts headlines carrying positive and negative keywords.
// One side must lead by more than two to move off neutral.
func Sentiment(items []contracts.NewsItem) string {
	var positive, negative int
	for _, item := range items {
		text := strings.ToLower(item.Title + item.Summary)
		if containsAny(text, positiveKeywords) {
			positive++
		}
		if containsAny(text, negativeKeywords) {
			negative++
		}
	}

	switch {
	case positive > negative+sentimentMargin:
		return SentimentBullish
	case negative > positive+sentimentMargin:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// Conclude combines the basis majority, policy news and sentiment
func Conclude(records []contracts.BasisRecord, news NewsAnalysis) Conclusion {
	view := "震荡整理"
	bearish := false
	if len(records) > 0 {
		var discounts, premiums int
		for _, r := range records {
			switch {
			case r.Basis < 0:
				discounts++
			case r.Basis > 0:
				premiums++
			}
		}
		switch {
		case discounts > premiums:
			view = "期货整体贴水，市场预期偏空"
			bearish = true
		case premiums > discounts:
			view = "期货整体升水，市场预期偏多"
		default:
			view = "期货基差平衡"
		}
	}

	alerts := []string{}
	if news.Categories[contracts.CategoryMacroPolicy] > 0 {
		alerts = append(alerts, "有宏观政策相关新闻，建议关注")
	}

	var recommendations []string
	switch news.Sentiment {
	case SentimentBullish:
		recommendations = append(recommendations, "建议适度加仓")
	case SentimentBearish:
		recommendations = append(recommendations, "建议保持谨慎")
	default:
		recommendations = append(recommendations, "建议保持观望")
	}
	if bearish {
		recommendations = append(recommendations, "控制仓位在50%-70%")
	}

	return Conclusion{
		MarketView:      view,
		RiskAlerts:      alerts,
		Recommendations: recommendations,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
