// Package news collects market headlines from HTML listing pages and RSS feeds.
package news

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/retry"
	"github.com/wonny/ashare-daily/backend/pkg/httputil"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// MaxItems caps the merged headline list
const MaxItems = 20

// dedupeTitleRunes is the title prefix used in the de-duplication key
const dedupeTitleRunes = 30

// ErrAllSourcesFailed is returned when every configured source failed
var ErrAllSourcesFailed = errors.New("all news sources failed")

// Client gathers headlines from configured sources
// ⭐ SSOT: 뉴스 수집은 이 클라이언트에서만
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	htmlSources []string
	rssSources  []string
	parser      *gofeed.Parser
	now         func() time.Time
}

// NewClient creates a news client over the given HTML pages and RSS feeds
func NewClient(httpClient *httputil.Client, log *logger.Logger, htmlSources, rssSources []string) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      log.WithComponent("news"),
		htmlSources: htmlSources,
		rssSources:  rssSources,
		parser:      gofeed.NewParser(),
		now:         time.Now,
	}
}

// CollectNews fetches every source, merges, de-duplicates and caps the result.
// A failed source is logged and skipped.
func (c *Client) CollectNews(ctx context.Context) ([]contracts.NewsItem, error) {
	timestamp := c.now().Format(time.RFC3339)

	var all []contracts.NewsItem
	var attempted, failed int
	var lastErr error

	collect := func(src string, parse func([]byte) ([]contracts.NewsItem, error)) {
		attempted++
		items, err := c.fetch(ctx, src, parse)
		if err != nil {
			failed++
			lastErr = err
			c.logger.WithField("source", src).WithError(err).Warn("News source failed")
			return
		}
		c.logger.WithFields(map[string]interface{}{
			"source": src,
			"count":  len(items),
		}).Debug("News source fetched")
		all = append(all, items...)
	}

	for _, src := range c.htmlSources {
		collect(src, func(b []byte) ([]contracts.NewsItem, error) {
			return parseHTML(b, src, timestamp)
		})
	}
	for _, src := range c.rssSources {
		collect(src, func(b []byte) ([]contracts.NewsItem, error) {
			return parseFeed(c.parser, b, src, timestamp)
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect news: %w", err)
	}
	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("%w: %v", ErrAllSourcesFailed, lastErr)
	}

	return Dedupe(all, MaxItems), nil
}

func (c *Client) fetch(ctx context.Context, src string, parse func([]byte) ([]contracts.NewsItem, error)) ([]contracts.NewsItem, error) {
	body, err := c.httpClient.Get(ctx, retry.KindNews, src, nil)
	if err != nil {
		return nil, err
	}
	items, err := parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	return items, nil
}

// Dedupe keeps the first item per (url, title prefix) and caps the list at limit
func Dedupe(items []contracts.NewsItem, limit int) []contracts.NewsItem {
	type key struct{ url, title string }

	seen := make(map[key]bool, len(items))
	out := make([]contracts.NewsItem, 0, len(items))
	for _, item := range items {
		k := key{url: item.URL, title: truncate(item.Title, dedupeTitleRunes)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
