package news

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

const (
	minTitleRunes  = 10
	maxTitleRunes  = 80
	keepTitleRunes = 100
	perSourceLimit = 20
)

// financeURLHints marks a link as finance related regardless of its title
var financeURLHints = []string{"finance", "stock", "money", "biz"}

// sourceNames maps a host suffix to a display name
var sourceNames = []struct {
	suffix string
	name   string
}{
	{"eastmoney.com", "东方财富"},
	{"ifeng.com", "凤凰财经"},
	{"sina.com.cn", "新浪财经"},
	{"wallstreetcn.com", "华尔街见闻"},
	{"cls.cn", "财联社"},
}

// SourceName returns the display name of a news page, falling back to its host
func SourceName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range sourceNames {
		if host == s.suffix || strings.HasSuffix(host, "."+s.suffix) {
			return s.name
		}
	}
	return host
}

// parseHTML extracts market headlines from anchors on a listing page
func parseHTML(body []byte, pageURL, timestamp string) ([]contracts.NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(pageURL)
	source := SourceName(pageURL)

	var items []contracts.NewsItem
	seen := make(map[string]bool)

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		title, _ := a.Attr("title")
		if strings.TrimSpace(title) == "" {
			title = a.Text()
		}
		title = normalizeSpace(title)

		n := utf8.RuneCountInString(title)
		if n < minTitleRunes || n > maxTitleRunes || seen[title] {
			return true
		}

		link := resolve(base, a.AttrOr("href", ""))
		if !relevant(title, link) {
			return true
		}

		seen[title] = true
		items = append(items, contracts.NewsItem{
			Title:      truncate(title, keepTitleRunes),
			URL:        link,
			Source:     source,
			Category:   Classify(title, ""),
			Importance: Importance(title, ""),
			Timestamp:  timestamp,
		})
		return len(items) < perSourceLimit
	})

	return items, nil
}

func relevant(title, link string) bool {
	if containsAny(title, marketKeywords) {
		return true
	}
	return containsAny(strings.ToLower(link), financeURLHints)
}

// resolve makes href absolute. Fragments and scripts fall back to the page URL.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return base.String()
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base.String()
	}
	return base.ResolveReference(ref).String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// cleanHTML strips tags from a feed description
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return normalizeSpace(doc.Text())
}
