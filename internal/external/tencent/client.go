// Package tencent collects spot index quotes from the Tencent quote feed.
package tencent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/retry"
	"github.com/wonny/ashare-daily/backend/pkg/httputil"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// DefaultBaseURL is the public quote endpoint
const DefaultBaseURL = "https://qt.gtimg.cn"

// minFields is the shortest record that carries every field we read
const minFields = 38

// Field positions in a "~" separated quote record
const (
	fieldName          = 1
	fieldPrice         = 3
	fieldPrevClose     = 4
	fieldOpen          = 5
	fieldVolume        = 6
	fieldChange        = 31
	fieldChangePercent = 32
	fieldHigh          = 33
	fieldLow           = 34
	fieldAmount        = 37
)

// v_sh000001="1~上证指数~000001~4146.63~...";
var quotePattern = regexp.MustCompile(`v_(sh|sz)(\w+)="([^"]+)"`)

// Client fetches index quotes
// ⭐ SSOT: 텐센트 시세 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a Tencent quote client. Empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("tencent"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// CollectMarket fetches every required index
func (c *Client) CollectMarket(ctx context.Context) ([]contracts.MarketQuote, error) {
	codes := make([]string, 0, len(contracts.RequiredIndices))
	for _, idx := range contracts.RequiredIndices {
		codes = append(codes, idx.Code)
	}
	return c.FetchQuotes(ctx, codes)
}

// FetchQuotes fetches quotes for the given codes (e.g. sh000300) in one request
func (c *Client) FetchQuotes(ctx context.Context, codes []string) ([]contracts.MarketQuote, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	url := fmt.Sprintf("%s/q=%s", c.baseURL, strings.Join(codes, ","))
	body, err := c.httpClient.Get(ctx, retry.KindMarket, url, map[string]string{
		"Referer": "https://finance.qq.com/",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch index quotes: %w", err)
	}

	quotes := parseQuotes(decodeGB18030(body))

	c.logger.WithFields(map[string]interface{}{
		"requested": len(codes),
		"parsed":    len(quotes),
	}).Debug("Fetched index quotes")

	return quotes, nil
}

// decodeGB18030 converts the feed's GB18030 body to UTF-8
func decodeGB18030(body []byte) string {
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(out)
}

// parseQuotes extracts one quote per well-formed record. Short records are skipped.
func parseQuotes(content string) []contracts.MarketQuote {
	matches := quotePattern.FindAllStringSubmatch(content, -1)
	quotes := make([]contracts.MarketQuote, 0, len(matches))

	for _, m := range matches {
		code := m[1] + m[2]
		parts := strings.Split(m[3], "~")
		if len(parts) < minFields {
			continue
		}

		name := strings.TrimSpace(parts[fieldName])
		if name == "" {
			name = contracts.IndexName(code)
		}

		quotes = append(quotes, contracts.MarketQuote{
			Code:          code,
			Name:          name,
			Price:         parseNumber(parts[fieldPrice]),
			PrevClose:     parseNumber(parts[fieldPrevClose]),
			Open:          parseNumber(parts[fieldOpen]),
			High:          parseNumber(parts[fieldHigh]),
			Low:           parseNumber(parts[fieldLow]),
			Volume:        parseNumber(parts[fieldVolume]),
			Amount:        parseNumber(parts[fieldAmount]),
			Change:        parseNumber(parts[fieldChange]),
			ChangePercent: parseNumber(parts[fieldChangePercent]),
		})
	}

	return quotes
}

// parseNumber returns nil for empty or malformed fields
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
