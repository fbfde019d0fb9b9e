package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/pkg/config"
	"github.com/wonny/ashare-daily/backend/pkg/httputil"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

const listingPage = `<html><body>
<a href="/stock/20260105/1.html" title="央行宣布降准0.5个百分点 释放长期资金">x</a>
<a href="https://finance.example.com/2.html">半导体板块午后拉升 多股涨停封板</a>
<a href="/about.html">关于我们关于我们关于我们</a>
<a href="#">短标题</a>
<a href="javascript:void(0)">美股三大指数集体收涨 纳指创历史新高</a>
<a href="/stock/20260105/1.html" title="央行宣布降准0.5个百分点 释放长期资金">dup</a>
</body></html>`

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>财经快讯</title>
<item>
  <title>证监会发布新规 加强上市公司监管</title>
  <link>https://feed.example.com/1</link>
  <description><![CDATA[<p>证监会今日<b>发布</b>新规</p>]]></description>
  <pubDate>Mon, 05 Jan 2026 08:00:00 GMT</pubDate>
</item>
<item>
  <title></title>
  <link>https://feed.example.com/empty</link>
</item>
<item>
  <title>光伏行业景气度回升</title>
  <link>https://feed.example.com/2</link>
</item>
</channel></rss>`

func TestClassify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"央行宣布降准", contracts.CategoryMacroPolicy},
		{"GDP同比增长5%", contracts.CategoryMacroPolicy},
		{"美联储维持利率不变", contracts.CategoryInternational},
		{"某公司发布业绩预告", contracts.CategoryCompany},
		{"A股三大指数收涨", contracts.CategoryCompany},
		{"新能源汽车销量创新高", contracts.CategoryIndustry},
		{"今日天气晴朗", contracts.CategoryOther},
		// earlier rule wins
		{"央行政策利好美股", contracts.CategoryMacroPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.title, ""))
		})
	}
}

func TestImportance(t *testing.T) {
	assert.Equal(t, contracts.ImportanceHigh, Importance("突发：两市大跌", ""))
	assert.Equal(t, contracts.ImportanceHigh, Importance("普通标题", "监管层表态"))
	assert.Equal(t, contracts.ImportanceMedium, Importance("光伏行业景气度回升", ""))
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "东方财富", SourceName("https://stock.eastmoney.com/"))
	assert.Equal(t, "凤凰财经", SourceName("https://news.ifeng.com/"))
	assert.Equal(t, "news.example.com", SourceName("https://news.example.com/x"))
}

func TestParseHTML(t *testing.T) {
	items, err := parseHTML([]byte(listingPage), "https://news.example.com/list/", "2026-01-05T15:00:00+08:00")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "央行宣布降准0.5个百分点 释放长期资金", items[0].Title)
	assert.Equal(t, "https://news.example.com/stock/20260105/1.html", items[0].URL)
	assert.Equal(t, contracts.CategoryMacroPolicy, items[0].Category)
	assert.Equal(t, contracts.ImportanceHigh, items[0].Importance)
	assert.Equal(t, "news.example.com", items[0].Source)
	assert.Equal(t, "2026-01-05T15:00:00+08:00", items[0].Timestamp)

	assert.Equal(t, "https://finance.example.com/2.html", items[1].URL)

	// script link falls back to the page URL
	assert.Equal(t, "https://news.example.com/list/", items[2].URL)
	assert.Equal(t, contracts.CategoryInternational, items[2].Category)
}

func TestParseFeed(t *testing.T) {
	items, err := parseFeed(gofeed.NewParser(), []byte(rssFeed), "https://feed.example.com/rss", "fallback")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "财经快讯", items[0].Source)
	assert.Equal(t, "证监会今日发布新规", items[0].Summary)
	assert.Equal(t, contracts.CategoryMacroPolicy, items[0].Category)
	assert.Equal(t, "2026-01-05T08:00:00Z", items[0].Timestamp)

	assert.Equal(t, "fallback", items[1].Timestamp)
	assert.Equal(t, contracts.CategoryIndustry, items[1].Category)
}

func TestDedupe(t *testing.T) {
	long := strings.Repeat("沪", 30)
	items := []contracts.NewsItem{
		{Title: long + "甲", URL: "u1"},
		{Title: long + "乙", URL: "u1"}, // same url and 30-rune prefix
		{Title: long + "乙", URL: "u2"},
	}
	for i := 0; i < 30; i++ {
		items = append(items, contracts.NewsItem{Title: fmt.Sprintf("标题%d", i), URL: "u"})
	}

	out := Dedupe(items, MaxItems)
	assert.Len(t, out, MaxItems)
	assert.Equal(t, "u1", out[0].URL)
	assert.Equal(t, "u2", out[1].URL)
}

func newTestClient(html, rss []string) *Client {
	cfg := &config.Config{Retry: config.RetryConfig{MaxAttempts: 1}}
	c := NewClient(httputil.New(cfg, logger.Nop()), logger.Nop(), html, rss)
	c.now = func() time.Time { return time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC) }
	return c
}

func TestCollectNews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient([]string{server.URL + "/list", server.URL + "/broken"}, []string{server.URL + "/rss"})
	items, err := c.CollectNews(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, "2026-01-05T15:00:00Z", items[0].Timestamp)
}

func TestCollectNews_AllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient([]string{server.URL + "/a"}, []string{server.URL + "/b"})
	_, err := c.CollectNews(context.Background())
	assert.True(t, errors.Is(err, ErrAllSourcesFailed))
}

func TestCollectNews_NoSources(t *testing.T) {
	items, err := newTestClient(nil, nil).CollectNews(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
