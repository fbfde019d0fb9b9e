package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/ashare-daily/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{Enabled: false}}

	client, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, err := New(&config.Config{})
	require.NoError(t, err)

	cache := NewCache(client, "ashare")
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, TTLShort))

	var dest map[string]int
	found, err := cache.Get(ctx, "k", &dest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestCache_GetSetWithMock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(Wrap(db), "ashare")
	ctx := context.Background()

	key := "ashare:cache:" + PayloadKey("market", "2026-01-05")

	mock.ExpectSet(key, `{"score":82}`, TTLDaily).SetVal("OK")
	mock.ExpectGet(key).SetVal(`{"score":82}`)
	mock.ExpectGet("ashare:cache:missing").RedisNil()
	mock.ExpectDel(key).SetVal(1)

	require.NoError(t, cache.Set(ctx, PayloadKey("market", "2026-01-05"), map[string]int{"score": 82}, TTLDaily))

	var dest map[string]int
	found, err := cache.Get(ctx, PayloadKey("market", "2026-01-05"), &dest)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 82, dest["score"])

	_, found, err = cache.GetBytes(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Delete(ctx, PayloadKey("market", "2026-01-05")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_BackendErrorSurfaces(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(Wrap(db), "ashare")

	mock.ExpectGet("ashare:cache:k").SetErr(errors.New("connection refused"))

	_, _, err := cache.GetBytes(context.Background(), "k")
	assert.Error(t, err)
}

func TestPayloadKey(t *testing.T) {
	assert.Equal(t, "payload:futures:2026-01-05", PayloadKey("futures", "2026-01-05"))
	assert.Equal(t, 7*24*time.Hour, TTLWeek)
}
