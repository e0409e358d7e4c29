package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-analytics/internal/analytics"
	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

func computeSet(t *testing.T, trades ...*domain.Trade) *domain.AnalyticsSet {
	t.Helper()
	set, err := analytics.Compute(trades, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return set
}

func TestAnalyticsStore_ReplaceAndLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalyticsStore(pool)

	sl := createTestTrade(3, "BTC/USD", -4)
	sl.ExitReason = domain.ExitReasonStopLoss
	set := computeSet(t,
		createTestTrade(1, "BTC/USD", 5),
		createTestTrade(2, "ETH/USD", -3),
		sl,
	)

	err := store.InTx(ctx, func(tx storage.AnalyticsTx) error {
		return storage.ReplaceAll(ctx, tx, set)
	})
	require.NoError(t, err)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, set.RowCount(), got.RowCount())

	require.Len(t, got.PerformanceRankings, 2)
	assert.Equal(t, set.PerformanceRankings[0].EntityName, got.PerformanceRankings[0].EntityName)
	assert.Equal(t, 1, got.PerformanceRankings[0].RankPosition)
	assert.True(t, got.PerformanceRankings[0].AnalysisDate.Equal(set.PerformanceRankings[0].AnalysisDate))

	require.Len(t, got.StopLossAnalytics, 2)
	assert.Equal(t, "BTC/USD", got.StopLossAnalytics[0].Pair)
	require.NotNil(t, got.StopLossAnalytics[0].AvgLossWhenTriggeredPct)
	assert.InDelta(t, -4, *got.StopLossAnalytics[0].AvgLossWhenTriggeredPct, 1e-9)
	assert.Nil(t, got.StopLossAnalytics[1].AvgLossWhenTriggeredPct)

	require.Len(t, got.BotHealthMetrics, 6)
	for _, m := range got.BotHealthMetrics {
		assert.Contains(t, []domain.HealthStatus{domain.HealthHealthy, domain.HealthWarning, domain.HealthCritical}, m.HealthStatus)
	}

	var overall *domain.TimingAnalysis
	for i := range got.TimingAnalysis {
		if got.TimingAnalysis[i].TimeCategory == domain.TimeCategoryOverall {
			overall = &got.TimingAnalysis[i]
		}
	}
	require.NotNil(t, overall)
	require.NotNil(t, overall.BestPerformanceHour)
}

func TestAnalyticsStore_RollbackOnError(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalyticsStore(pool)

	first := computeSet(t, createTestTrade(1, "BTC/USD", 5))
	require.NoError(t, store.InTx(ctx, func(tx storage.AnalyticsTx) error {
		return storage.ReplaceAll(ctx, tx, first)
	}))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx storage.AnalyticsTx) error {
		if err := storage.ReplaceAll(ctx, tx, computeSet(t, createTestTrade(2, "ETH/USD", 1))); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.PairAnalytics, 1)
	assert.Equal(t, "BTC/USD", got.PairAnalytics[0].Pair)
}

func TestAnalyticsStore_EmptyReplaceClearsTables(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalyticsStore(pool)

	require.NoError(t, store.InTx(ctx, func(tx storage.AnalyticsTx) error {
		return storage.ReplaceAll(ctx, tx, computeSet(t, createTestTrade(1, "BTC/USD", 5)))
	}))
	require.NoError(t, store.InTx(ctx, func(tx storage.AnalyticsTx) error {
		return storage.ReplaceAll(ctx, tx, &domain.AnalyticsSet{})
	}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, got.RowCount())
}
