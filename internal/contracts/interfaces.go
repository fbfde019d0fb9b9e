package contracts

import (
	"context"
	"time"
)

// MarketCollector fetches spot index quotes
// ⭐ SSOT: 시세 수집 인터페이스
type MarketCollector interface {
	CollectMarket(ctx context.Context) ([]MarketQuote, error)
}

// FuturesCollector fetches index futures quotes for the contracts live on date
// ⭐ SSOT: 선물 수집 인터페이스
type FuturesCollector interface {
	CollectFutures(ctx context.Context, date time.Time) (FuturesBoard, error)
}

// NewsCollector fetches the day's headlines
// ⭐ SSOT: 뉴스 수집 인터페이스
type NewsCollector interface {
	CollectNews(ctx context.Context) ([]NewsItem, error)
}

// QualitySnapshotStore persists gate decisions
type QualitySnapshotStore interface {
	SaveReport(ctx context.Context, report *QualityReport) error
}
