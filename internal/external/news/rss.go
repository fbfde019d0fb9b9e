package news

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

const maxSummaryRunes = 200

// parseFeed converts RSS/Atom entries into news items
func parseFeed(parser *gofeed.Parser, body []byte, feedURL, timestamp string) ([]contracts.NewsItem, error) {
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = SourceName(feedURL)
	}

	items := make([]contracts.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title := normalizeSpace(entry.Title)
		if title == "" {
			continue
		}

		summary := truncate(cleanHTML(entry.Description), maxSummaryRunes)
		ts := timestamp
		if entry.PublishedParsed != nil {
			ts = entry.PublishedParsed.Format(time.RFC3339)
		}

		items = append(items, contracts.NewsItem{
			Title:      truncate(title, keepTitleRunes),
			URL:        entry.Link,
			Source:     source,
			Category:   Classify(title, summary),
			Importance: Importance(title, summary),
			Summary:    summary,
			Timestamp:  ts,
		})
		if len(items) >= perSourceLimit {
			break
		}
	}

	return items, nil
}
