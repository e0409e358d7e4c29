package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage/migrations"
	"trading-analytics/internal/storage/sqlite"
)

// setupTestDB opens a migrated database in a per-test temp directory.
func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "data", "tradesv3.sqlite"))
	require.NoError(t, err, "failed to open sqlite")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db), "failed to run migrations")
	return db
}

func createTestTrade(id int64, pair string, pct float64) *domain.Trade {
	open := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour)
	closeDate := open.Add(45 * time.Minute)
	return &domain.Trade{
		TradeID:       id,
		Pair:          pair,
		IsOpen:        false,
		Strategy:      "ema_cross",
		ProfitPct:     pct,
		ProfitAbs:     pct,
		StakeAmount:   100,
		OpenDate:      &open,
		CloseDate:     &closeDate,
		TradeDuration: ptr(45),
		ExitReason:    domain.ExitReasonROI,
		StopLossPct:   ptr(-5.0),
	}
}

func processingSnapshot(runID string, lastTradeID int64) *domain.Snapshot {
	return &domain.Snapshot{
		RunID:            runID,
		SnapshotType:     domain.SnapshotTypeAutomated,
		Status:           domain.SnapshotProcessing,
		RecordsProcessed: 1,
		LastTradeID:      lastTradeID,
	}
}

func ptr[T any](v T) *T {
	return &v
}
