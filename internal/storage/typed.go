package storage

import (
	"context"
	"fmt"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

func load[T any](ctx context.Context, s *Store, t contracts.PayloadType, date string) (T, error) {
	var out T
	env, err := s.Load(ctx, t, date)
	if err != nil {
		return out, err
	}
	if err := env.Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s %s data: %w", t, date, err)
	}
	return out, nil
}

// SaveMarket stores spot index quotes
func (s *Store) SaveMarket(ctx context.Context, date string, quotes []contracts.MarketQuote) (string, error) {
	return s.Save(ctx, contracts.PayloadMarket, date, quotes)
}

// LoadMarket loads spot index quotes
func (s *Store) LoadMarket(ctx context.Context, date string) ([]contracts.MarketQuote, error) {
	return load[[]contracts.MarketQuote](ctx, s, contracts.PayloadMarket, date)
}

// SaveFutures stores the futures board
func (s *Store) SaveFutures(ctx context.Context, date string, board contracts.FuturesBoard) (string, error) {
	return s.Save(ctx, contracts.PayloadFutures, date, board)
}

// LoadFutures loads the futures board
func (s *Store) LoadFutures(ctx context.Context, date string) (contracts.FuturesBoard, error) {
	return load[contracts.FuturesBoard](ctx, s, contracts.PayloadFutures, date)
}

// SaveNews stores headlines
func (s *Store) SaveNews(ctx context.Context, date string, items []contracts.NewsItem) (string, error) {
	return s.Save(ctx, contracts.PayloadNews, date, items)
}

// LoadNews loads headlines
func (s *Store) LoadNews(ctx context.Context, date string) ([]contracts.NewsItem, error) {
	return load[[]contracts.NewsItem](ctx, s, contracts.PayloadNews, date)
}

// SaveBasis stores computed basis records
func (s *Store) SaveBasis(ctx context.Context, date string, records []contracts.BasisRecord) (string, error) {
	return s.Save(ctx, contracts.PayloadBasis, date, records)
}

// LoadBasis loads computed basis records
func (s *Store) LoadBasis(ctx context.Context, date string) ([]contracts.BasisRecord, error) {
	return load[[]contracts.BasisRecord](ctx, s, contracts.PayloadBasis, date)
}

// SaveQuality stores a quality report
func (s *Store) SaveQuality(ctx context.Context, date string, report *contracts.QualityReport) (string, error) {
	return s.Save(ctx, contracts.PayloadQuality, date, report)
}

// LoadQuality loads a quality report
func (s *Store) LoadQuality(ctx context.Context, date string) (*contracts.QualityReport, error) {
	return load[*contracts.QualityReport](ctx, s, contracts.PayloadQuality, date)
}

// SaveAnalysis stores an analysis result (any JSON-serializable value)
func (s *Store) SaveAnalysis(ctx context.Context, date string, analysis interface{}) (string, error) {
	return s.Save(ctx, contracts.PayloadAnalysis, date, analysis)
}

// LoadAnalysis decodes a stored analysis into dest
func (s *Store) LoadAnalysis(ctx context.Context, date string, dest interface{}) error {
	env, err := s.Load(ctx, contracts.PayloadAnalysis, date)
	if err != nil {
		return err
	}
	return env.Decode(dest)
}

// SaveMacro stores a macro snapshot
func (s *Store) SaveMacro(ctx context.Context, date string, snap *contracts.MacroSnapshot) (string, error) {
	return s.Save(ctx, contracts.PayloadMacro, date, snap)
}

// LoadMacro loads a macro snapshot
func (s *Store) LoadMacro(ctx context.Context, date string) (*contracts.MacroSnapshot, error) {
	return load[*contracts.MacroSnapshot](ctx, s, contracts.PayloadMacro, date)
}

// PreviousMacro returns the latest macro snapshot stored before date.
// Returns ErrNotFound when there is none.
func (s *Store) PreviousMacro(ctx context.Context, date string) (string, *contracts.MacroSnapshot, error) {
	dates, err := s.ListDates(contracts.PayloadMacro)
	if err != nil {
		return "", nil, err
	}
	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i] < date {
			snap, err := s.LoadMacro(ctx, dates[i])
			return dates[i], snap, err
		}
	}
	return "", nil, fmt.Errorf("macro before %s: %w", date, ErrNotFound)
}
