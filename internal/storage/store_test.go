package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
	"github.com/wonny/ashare-daily/backend/pkg/redis"
)

var fixedNow = time.Date(2026, 1, 5, 15, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

func quotes() []contracts.MarketQuote {
	return []contracts.MarketQuote{
		{Code: "sh000300", Name: "沪深300", Price: contracts.Float(3850.5), ChangePercent: contracts.Float(0)},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	path, err := s.SaveMarket(ctx, "2026-01-05", quotes())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "market_2026-01-05.json"), path)

	env, err := s.Load(ctx, contracts.PayloadMarket, "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", env.Date)
	assert.Equal(t, contracts.PayloadMarket, env.Type)
	assert.True(t, fixedNow.Equal(env.Timestamp))

	got, err := s.LoadMarket(ctx, "2026-01-05")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3850.5, *got[0].Price)
	require.NotNil(t, got[0].ChangePercent)
	assert.Equal(t, 0.0, *got[0].ChangePercent)
	assert.Nil(t, got[0].Volume)

	// no temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_NotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Load(context.Background(), contracts.PayloadNews, "2026-01-05")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.LoadBasis(context.Background(), "2026-01-05")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_RejectsBadDate(t *testing.T) {
	s := newStore(t)
	_, err := s.Save(context.Background(), contracts.PayloadNews, "../etc", nil)
	assert.Error(t, err)
	assert.False(t, s.Exists(contracts.PayloadNews, "../etc"))
}

func TestStore_ListAndRange(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, d := range []string{"2026-01-07", "2026-01-05", "2026-01-06"} {
		_, err := s.SaveNews(ctx, d, []contracts.NewsItem{{Title: d, Category: contracts.CategoryOther}})
		require.NoError(t, err)
	}
	_, err := s.SaveBasis(ctx, "2026-01-05", nil)
	require.NoError(t, err)
	// stray file ignored
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "news_latest.json"), []byte("{}"), 0o644))

	dates, err := s.ListDates(contracts.PayloadNews)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-05", "2026-01-06", "2026-01-07"}, dates)

	envs, err := s.LoadRange(ctx, contracts.PayloadNews, "2026-01-06", "2026-01-07")
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "2026-01-06", envs[0].Date)
	assert.Equal(t, "2026-01-07", envs[1].Date)

	envs, err = s.LoadRange(ctx, contracts.PayloadNews, "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SaveMarket(ctx, "2026-01-05", quotes())
	require.NoError(t, err)
	assert.True(t, s.Exists(contracts.PayloadMarket, "2026-01-05"))

	deleted, err := s.Delete(ctx, contracts.PayloadMarket, "2026-01-05")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, s.Exists(contracts.PayloadMarket, "2026-01-05"))

	deleted, err = s.Delete(ctx, contracts.PayloadMarket, "2026-01-05")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_QualityAndAnalysis(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	report := &contracts.QualityReport{Date: "2026-01-05", OverallScore: 88, Passed: true}
	_, err := s.SaveQuality(ctx, "2026-01-05", report)
	require.NoError(t, err)

	got, err := s.LoadQuality(ctx, "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, 88, got.OverallScore)
	assert.True(t, got.Passed)

	_, err = s.SaveAnalysis(ctx, "2026-01-05", map[string]string{"conclusion": "ok"})
	require.NoError(t, err)
	var dest map[string]string
	require.NoError(t, s.LoadAnalysis(ctx, "2026-01-05", &dest))
	assert.Equal(t, "ok", dest["conclusion"])
}

func TestStore_Macro(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, _, err := s.PreviousMacro(ctx, "2026-01-05")
	assert.True(t, errors.Is(err, ErrNotFound))

	for i, date := range []string{"2025-11-05", "2025-12-05", "2026-01-05"} {
		snap := &contracts.MacroSnapshot{
			Indicators: map[string]*contracts.MacroIndicator{
				"m2": {Name: "M2货币供应", Value: contracts.Float(310 + float64(i)), YoY: contracts.Float(7.3)},
			},
			CentralBank: []contracts.PolicyRate{{Name: "1年期LPR", Value: "3.45%"}},
		}
		_, err := s.SaveMacro(ctx, date, snap)
		require.NoError(t, err)
	}

	got, err := s.LoadMacro(ctx, "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, 312.0, *got.Indicator("m2").Value)
	assert.Equal(t, "3.45%", got.CentralBank[0].Value)

	prevDate, prev, err := s.PreviousMacro(ctx, "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-05", prevDate)
	assert.Equal(t, 311.0, *prev.Indicator("m2").Value)

	prevDate, _, err = s.PreviousMacro(ctx, "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", prevDate)
}

func TestStore_ReadThroughCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := newStore(t).WithCache(redis.NewCache(redis.Wrap(db), "ashare"))
	ctx := context.Background()

	key := "ashare:cache:" + redis.PayloadKey("market", "2026-01-05")

	raw, err := json.Marshal(quotes())
	require.NoError(t, err)
	expected, err := json.MarshalIndent(contracts.Envelope{
		Date:      "2026-01-05",
		Type:      contracts.PayloadMarket,
		Timestamp: fixedNow,
		Data:      raw,
	}, "", "  ")
	require.NoError(t, err)

	mock.ExpectSet(key, string(expected), redis.TTLDaily).SetVal("OK")
	mock.ExpectGet(key).SetVal(string(expected))

	_, err = s.SaveMarket(ctx, "2026-01-05", quotes())
	require.NoError(t, err)

	// remove the file: the second read must come from the cache
	require.NoError(t, os.Remove(filepath.Join(s.Dir(), "market_2026-01-05.json")))

	got, err := s.LoadMarket(ctx, "2026-01-05")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sh000300", got[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CacheMissFallsBackToDisk(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SaveMarket(ctx, "2026-01-05", quotes())
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(s.Dir(), "market_2026-01-05.json"))
	require.NoError(t, err)

	s.WithCache(redis.NewCache(redis.Wrap(db), "ashare"))
	key := "ashare:cache:" + redis.PayloadKey("market", "2026-01-05")
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, string(b), redis.TTLDaily).SetVal("OK")

	got, err := s.LoadMarket(ctx, "2026-01-05")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
