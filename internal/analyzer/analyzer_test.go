package analyzer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ashare-daily/backend/internal/basis"
	"github.com/wonny/ashare-daily/backend/internal/calendar"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

type tenDays struct{}

func (tenDays) TradingDaysToExpiry(contracts.ContractType, time.Time) (int, error) {
	return 10, nil
}

type failingEngine struct{}

func (failingEngine) Compute(map[string]contracts.SpotIndex, contracts.FuturesBoard, time.Time) ([]contracts.BasisRecord, error) {
	return nil, errors.New("boom")
}

var day = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func mq(code string, price, change, volume float64) contracts.MarketQuote {
	return contracts.MarketQuote{
		Code:          code,
		Name:          contracts.IndexName(code),
		Price:         contracts.Float(price),
		ChangePercent: contracts.Float(change),
		Volume:        contracts.Float(volume),
	}
}

func headline(title, category, importance string) contracts.NewsItem {
	return contracts.NewsItem{Title: title, Category: category, Importance: importance}
}

func TestAnalyzeMarket(t *testing.T) {
	m := AnalyzeMarket([]contracts.MarketQuote{
		mq("sh000001", 3300, -0.5, 100),
		mq("sh000300", 4000, 1.2, 300),
		{Code: "sh000905", Name: "中证500", Price: contracts.Float(6000)},
	})

	require.Len(t, m.Daily, 3)
	assert.Equal(t, "sh000300", m.Daily[0].Code)
	assert.Equal(t, "sh000905", m.Daily[1].Code, "missing change ranks as zero")
	assert.Equal(t, "sh000001", m.Daily[2].Code)
	assert.InDelta(t, 133.333, m.Volume.AvgVolume, 0.001)
	assert.Equal(t, "正常", m.Volume.Trend)

	empty := AnalyzeMarket(nil)
	assert.Empty(t, empty.Daily)
	assert.Equal(t, "数据不足", empty.Volume.Trend)
}

func TestSentiment(t *testing.T) {
	bull := []contracts.NewsItem{
		{Title: "利好消息"}, {Title: "大涨"}, {Title: "反弹"}, {Title: "突破新高"},
	}
	assert.Equal(t, SentimentBullish, Sentiment(bull))

	// lead of exactly two stays neutral
	assert.Equal(t, SentimentNeutral, Sentiment(bull[:2]))
	assert.Equal(t, SentimentNeutral, Sentiment(append(bull, contracts.NewsItem{Title: "回落"}, contracts.NewsItem{Title: "下滑"})))

	bear := []contracts.NewsItem{
		{Title: "下跌"}, {Title: "跌停"}, {Title: "风险提示"}, {Summary: "看跌"},
	}
	assert.Equal(t, SentimentBearish, Sentiment(bear))
}

func TestAnalyzeNews(t *testing.T) {
	items := []contracts.NewsItem{
		headline("a", contracts.CategoryMacroPolicy, contracts.ImportanceHigh),
		headline("b", contracts.CategoryMacroPolicy, contracts.ImportanceMedium),
		headline("c", "", contracts.ImportanceHigh),
	}
	for i := 0; i < 6; i++ {
		items = append(items, headline("h", contracts.CategoryIndustry, contracts.ImportanceHigh))
	}

	n := AnalyzeNews(items)
	assert.Equal(t, 9, n.Count)
	assert.Equal(t, "共9条新闻", n.Summary)
	assert.Len(t, n.HighImportance, 5)
	assert.Equal(t, "a", n.HighImportance[0].Title)
	assert.Equal(t, 2, n.Categories[contracts.CategoryMacroPolicy])
	assert.Equal(t, 1, n.Categories[contracts.CategoryOther])
	assert.Equal(t, 6, n.Categories[contracts.CategoryIndustry])

	empty := AnalyzeNews(nil)
	assert.Equal(t, "无新闻数据", empty.Summary)
	assert.Equal(t, SentimentNeutral, empty.Sentiment)
}

func TestConclude(t *testing.T) {
	discount := []contracts.BasisRecord{{Basis: -10}, {Basis: -3}, {Basis: 2}}
	c := Conclude(discount, NewsAnalysis{
		Sentiment:  SentimentBearish,
		Categories: map[string]int{contracts.CategoryMacroPolicy: 1},
	})
	assert.Equal(t, "期货整体贴水，市场预期偏空", c.MarketView)
	assert.Equal(t, []string{"有宏观政策相关新闻，建议关注"}, c.RiskAlerts)
	assert.Equal(t, []string{"建议保持谨慎", "控制仓位在50%-70%"}, c.Recommendations)

	premium := Conclude([]contracts.BasisRecord{{Basis: 5}}, NewsAnalysis{Sentiment: SentimentBullish})
	assert.Equal(t, "期货整体升水，市场预期偏多", premium.MarketView)
	assert.Equal(t, []string{"建议适度加仓"}, premium.Recommendations)
	assert.Empty(t, premium.RiskAlerts)

	balanced := Conclude([]contracts.BasisRecord{{Basis: 5}, {Basis: -5}, {Basis: 0}}, NewsAnalysis{})
	assert.Equal(t, "期货基差平衡", balanced.MarketView)
	assert.Equal(t, []string{"建议保持观望"}, balanced.Recommendations)

	none := Conclude(nil, NewsAnalysis{})
	assert.Equal(t, "震荡整理", none.MarketView)
}

func TestAnalyze(t *testing.T) {
	a := New(basis.NewEngine(tenDays{}), logger.Nop())
	a.now = func() time.Time { return day }

	board := contracts.FuturesBoard{}
	board.Set("IF", contracts.CurrentMonth, &contracts.FuturesQuote{Price: contracts.Float(4010)})
	board.Set("IF", contracts.NextQuarter, nil)

	result, err := a.Analyze(day, Inputs{
		Market:  []contracts.MarketQuote{mq("sh000300", 4000, 0.3, 10)},
		Futures: board,
		News:    []contracts.NewsItem{headline("央行降准", contracts.CategoryMacroPolicy, contracts.ImportanceHigh)},
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-01-05", result.Date)
	require.Len(t, result.Basis, 1)
	assert.Equal(t, 9.13, result.Basis[0].AnnualizedBasis)
	assert.Equal(t, "期货整体升水，市场预期偏多", result.Conclusion.MarketView)
	assert.Equal(t, day, result.Timestamp)
}

func TestAnalyze_NoFuturesMeansNoBasis(t *testing.T) {
	a := New(failingEngine{}, logger.Nop())
	result, err := a.Analyze(day, Inputs{Market: []contracts.MarketQuote{mq("sh000300", 4000, 0, 0)}})
	require.NoError(t, err)
	assert.Empty(t, result.Basis)
	assert.NotNil(t, result.Basis)
}

func TestAnalyze_EngineError(t *testing.T) {
	board := contracts.FuturesBoard{}
	board.Set("IF", contracts.CurrentMonth, &contracts.FuturesQuote{Price: contracts.Float(1)})

	_, err := New(failingEngine{}, logger.Nop()).Analyze(day, Inputs{
		Market:  []contracts.MarketQuote{mq("sh000300", 4000, 0, 0)},
		Futures: board,
	})
	assert.Error(t, err)
}

func TestAnalyze_CalendarCoverageWarning(t *testing.T) {
	a := New(basis.NewEngine(tenDays{}), logger.Nop()).WithCoverage(calendar.Default())

	result, err := a.Analyze(day, Inputs{})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	november := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	result, err = a.Analyze(november, Inputs{})
	require.NoError(t, err)
	assert.Equal(t, []string{"交易日历未覆盖2027年，到期天数仅按周末计算"}, result.Warnings)

	assert.Nil(t, New(basis.NewEngine(tenDays{}), logger.Nop()).CalendarWarnings(november))
}
