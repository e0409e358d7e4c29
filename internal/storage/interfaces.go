package storage

import (
	"context"
	"fmt"

	"trading-analytics/internal/domain"
)

// TradeStore provides access to trades storage.
// The trading bot owns this table; the engine only reads closed rows.
type TradeStore interface {
	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate trade_id.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// CountClosedAfter counts closed trades with trade_id > afterID.
	CountClosedAfter(ctx context.Context, afterID int64) (int64, error)

	// ListClosedAfter retrieves closed trades with trade_id > afterID, ordered by trade_id ASC.
	ListClosedAfter(ctx context.Context, afterID int64) ([]*domain.Trade, error)

	// ListClosed retrieves closed trades with trade_id <= maxID, ordered by trade_id ASC.
	ListClosed(ctx context.Context, maxID int64) ([]*domain.Trade, error)

	// MaxClosedID returns the highest closed trade_id, or 0 when there are none.
	MaxClosedID(ctx context.Context) (int64, error)
}

// SnapshotStore provides access to the analysis_snapshots audit log.
type SnapshotStore interface {
	// Create inserts a snapshot in processing state and returns its id.
	Create(ctx context.Context, s *domain.Snapshot) (int64, error)

	// LastCompleted returns the most recent completed snapshot.
	// Returns ErrNotFound if no snapshot has completed yet.
	LastCompleted(ctx context.Context) (*domain.Snapshot, error)

	// MarkFailed moves a processing snapshot to failed with the given message.
	// Returns ErrNotFound for an unknown id and ErrInvalidTransition if it is not processing.
	MarkFailed(ctx context.Context, id int64, message string) error

	// List returns up to limit snapshots, newest first.
	List(ctx context.Context, limit int) ([]*domain.Snapshot, error)
}

// AnalyticsTx is the write side of one cycle. Every method runs inside the
// same transaction; nothing is visible to readers until InTx returns nil.
type AnalyticsTx interface {
	ReplacePerformanceRankings(ctx context.Context, rows []domain.PerformanceRanking) error
	ReplaceRiskMetrics(ctx context.Context, rows []domain.RiskMetric) error
	ReplaceStrategyPerformance(ctx context.Context, rows []domain.StrategyPerformance) error
	ReplaceTimingAnalysis(ctx context.Context, rows []domain.TimingAnalysis) error
	ReplacePairAnalytics(ctx context.Context, rows []domain.PairAnalytics) error
	ReplaceStopLossAnalytics(ctx context.Context, rows []domain.StopLossAnalytics) error
	ReplaceDurationPatterns(ctx context.Context, rows []domain.DurationPattern) error
	ReplaceBotHealthMetrics(ctx context.Context, rows []domain.BotHealthMetric) error

	// CompleteSnapshot marks a processing snapshot completed, which advances
	// the checkpoint to lastTradeID.
	CompleteSnapshot(ctx context.Context, id, lastTradeID int64) error
}

// AnalyticsStore provides access to the eight derived analytics tables.
type AnalyticsStore interface {
	// Load reads the current contents of all eight tables. Rows of each table come
	// back in that table's Less order on every backend.
	Load(ctx context.Context) (*domain.AnalyticsSet, error)

	// InTx runs fn in a write transaction. The transaction commits only if fn
	// returns nil; otherwise every write made through tx is discarded.
	InTx(ctx context.Context, fn func(tx AnalyticsTx) error) error
}

// Stores bundles the stores of one backend.
type Stores struct {
	Trades    TradeStore
	Snapshots SnapshotStore
	Analytics AnalyticsStore
}

// ReplaceAll writes every table of set through tx.
func ReplaceAll(ctx context.Context, tx AnalyticsTx, set *domain.AnalyticsSet) error {
	if set == nil {
		return ErrInvalidInput
	}
	steps := []struct {
		table string
		run   func() error
	}{
		{TablePerformanceRankings, func() error { return tx.ReplacePerformanceRankings(ctx, set.PerformanceRankings) }},
		{TableRiskMetrics, func() error { return tx.ReplaceRiskMetrics(ctx, set.RiskMetrics) }},
		{TableStrategyPerformance, func() error { return tx.ReplaceStrategyPerformance(ctx, set.StrategyPerformance) }},
		{TableTimingAnalysis, func() error { return tx.ReplaceTimingAnalysis(ctx, set.TimingAnalysis) }},
		{TablePairAnalytics, func() error { return tx.ReplacePairAnalytics(ctx, set.PairAnalytics) }},
		{TableStopLossAnalytics, func() error { return tx.ReplaceStopLossAnalytics(ctx, set.StopLossAnalytics) }},
		{TableDurationPatterns, func() error { return tx.ReplaceDurationPatterns(ctx, set.DurationPatterns) }},
		{TableBotHealthMetrics, func() error { return tx.ReplaceBotHealthMetrics(ctx, set.BotHealthMetrics) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return fmt.Errorf("replace %s: %w", s.table, err)
		}
	}
	return nil
}
