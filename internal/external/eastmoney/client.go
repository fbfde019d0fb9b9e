// Package eastmoney collects CFFEX index futures quotes from the Eastmoney push API.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/calendar"
	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/internal/retry"
	"github.com/wonny/ashare-daily/backend/pkg/httputil"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
)

// DefaultBaseURL is the public push endpoint
const DefaultBaseURL = "https://push2.eastmoney.com"

// marketCFFEX is the Eastmoney market id of the financial futures exchange
const marketCFFEX = "90"

const quoteFields = "f43,f44,f45,f46,f47,f48,f50,f51,f52,f57,f58,f59,f60,f169,f170,f171"

// Client fetches futures quotes
// ⭐ SSOT: 동방재부 선물 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates an Eastmoney futures client. Empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("eastmoney"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type quoteResponse struct {
	RC   int                        `json:"rc"`
	Data map[string]json.RawMessage `json:"data"`
}

// CollectFutures fetches every listed contract of every product for date.
// A contract the API does not know is an empty slot. Failed requests are
// logged and also left empty; only cancellation or a total failure is an error.
func (c *Client) CollectFutures(ctx context.Context, date time.Time) (contracts.FuturesBoard, error) {
	board := make(contracts.FuturesBoard, len(contracts.FuturesProducts))

	var total, failed int
	var lastErr error
	for _, product := range contracts.FuturesProducts {
		for _, ct := range product.Contracts {
			total++
			symbol, err := calendar.ContractSymbol(product.Code, ct, date.Year(), date.Month())
			if err != nil {
				return nil, err
			}

			q, err := c.FetchContract(ctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("collect futures: %w", err)
				}
				failed++
				lastErr = err
				c.logger.WithFields(map[string]interface{}{
					"code":     product.Code,
					"contract": ct.Label(),
					"symbol":   symbol,
				}).WithError(err).Warn("Futures quote fetch failed")
				board.Set(product.Code, ct, nil)
				continue
			}

			if q != nil {
				q.Code = product.Code
				q.ContractType = ct
			}
			board.Set(product.Code, ct, q)
		}
	}

	if total > 0 && failed == total {
		return nil, fmt.Errorf("collect futures: all %d requests failed: %w", total, lastErr)
	}

	c.logger.WithFields(map[string]interface{}{
		"contracts": total,
		"failed":    failed,
	}).Debug("Fetched futures board")

	return board, nil
}

// FetchContract fetches one contract by exchange symbol (e.g. IF2611).
// Returns (nil, nil) when the API has no data for the symbol.
func (c *Client) FetchContract(ctx context.Context, symbol string) (*contracts.FuturesQuote, error) {
	params := url.Values{}
	params.Set("secid", marketCFFEX+"."+symbol)
	params.Set("fields", quoteFields)
	target := fmt.Sprintf("%s/api/qt/stock/get?%s", c.baseURL, params.Encode())

	body, err := c.httpClient.Get(ctx, retry.KindFutures, target, map[string]string{
		"Referer": "https://quote.eastmoney.com/",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	q, err := parseQuote(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", symbol, err)
	}
	if q != nil {
		q.Contract = symbol
	}
	return q, nil
}

// parseQuote decodes a push2 response. Null data yields (nil, nil).
func parseQuote(body []byte) (*contracts.FuturesQuote, error) {
	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, retry.Permanent(err)
	}
	if resp.Data == nil {
		return nil, nil
	}

	d := resp.Data
	return &contracts.FuturesQuote{
		Price:         scaled(d["f43"], 1000),
		Open:          scaled(d["f44"], 1000),
		High:          scaled(d["f45"], 1000),
		Low:           scaled(d["f46"], 1000),
		Volume:        scaled(d["f47"], 1),
		Amount:        scaled(d["f48"], 1e8),
		Change:        scaled(d["f169"], 1000),
		ChangePercent: scaled(d["f170"], 100),
		Settlement:    scaled(d["f171"], 1000),
	}, nil
}

// scaled divides a numeric field by div. Absent, null or "-" fields are nil.
func scaled(raw json.RawMessage, div float64) *float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v /= div
	return &v
}
