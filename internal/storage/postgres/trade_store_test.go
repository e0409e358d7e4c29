package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

func createTestTrade(id int64, pair string, pct float64) *domain.Trade {
	open := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour)
	closed := open.Add(45 * time.Minute)
	return &domain.Trade{
		TradeID:       id,
		Pair:          pair,
		BaseCurrency:  pair[:3],
		QuoteCurrency: "USD",
		Strategy:      "SampleStrategy",
		StakeAmount:   100,
		ProfitRatio:   pct / 100,
		ProfitPct:     pct,
		ProfitAbs:     pct,
		OpenDate:      &open,
		CloseDate:     &closed,
		TradeDuration: ptr(45),
		ExitReason:    domain.ExitReasonROI,
		StopLossPct:   ptr(-5.0),
	}
}

func TestTradeStore_InsertAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	open := createTestTrade(4, "ETH/USD", 0)
	open.IsOpen = true
	open.CloseDate = nil
	open.TradeDuration = nil

	err := store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade(2, "ETH/USD", -1.5),
		createTestTrade(1, "BTC/USD", 3.25),
		createTestTrade(3, "BTC/USD", 0.5),
		open,
	})
	require.NoError(t, err)

	trades, err := store.ListClosed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, int64(1), trades[0].TradeID)
	assert.Equal(t, int64(3), trades[2].TradeID)

	got := trades[0]
	assert.Equal(t, "BTC/USD", got.Pair)
	assert.Equal(t, "BTC", got.BaseCurrency)
	assert.InDelta(t, 3.25, got.ProfitPct, 1e-9)
	require.NotNil(t, got.OpenDate)
	assert.True(t, got.OpenDate.Equal(*createTestTrade(1, "BTC/USD", 0).OpenDate))
	require.NotNil(t, got.TradeDuration)
	assert.Equal(t, 45, *got.TradeDuration)
	require.NotNil(t, got.StopLossPct)
	assert.InDelta(t, -5.0, *got.StopLossPct, 1e-9)
	assert.False(t, got.IsOpen)

	after, err := store.ListClosedAfter(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, after, 2)

	n, err := store.CountClosedAfter(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	maxID, err := store.MaxClosedID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), maxID)
}

func TestTradeStore_MaxClosedIDEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	maxID, err := NewTradeStore(pool).MaxClosedID(context.Background())
	require.NoError(t, err)
	assert.Zero(t, maxID)
}

func TestTradeStore_DuplicateKeyRollsBackBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{createTestTrade(1, "BTC/USD", 1)}))

	err := store.InsertBulk(ctx, []*domain.Trade{
		createTestTrade(2, "BTC/USD", 1),
		createTestTrade(1, "BTC/USD", 1),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	n, err := store.CountClosedAfter(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
