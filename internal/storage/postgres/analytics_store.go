package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/observability"
	"trading-analytics/internal/storage"
)

// AnalyticsStore implements storage.AnalyticsStore using PostgreSQL.
type AnalyticsStore struct {
	pool *Pool
}

// NewAnalyticsStore creates a new AnalyticsStore.
func NewAnalyticsStore(pool *Pool) *AnalyticsStore {
	return &AnalyticsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Load reads all eight tables in one read-only transaction, so the result
// always belongs to a single committed cycle.
func (s *AnalyticsStore) Load(ctx context.Context) (*domain.AnalyticsSet, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	set := &domain.AnalyticsSet{}
	if set.PerformanceRankings, err = load(ctx, tx, storage.PerformanceRankings); err != nil {
		return nil, err
	}
	if set.RiskMetrics, err = load(ctx, tx, storage.RiskMetrics); err != nil {
		return nil, err
	}
	if set.StrategyPerformance, err = load(ctx, tx, storage.StrategyPerformance); err != nil {
		return nil, err
	}
	if set.TimingAnalysis, err = load(ctx, tx, storage.TimingAnalysis); err != nil {
		return nil, err
	}
	if set.PairAnalytics, err = load(ctx, tx, storage.PairAnalytics); err != nil {
		return nil, err
	}
	if set.StopLossAnalytics, err = load(ctx, tx, storage.StopLossAnalytics); err != nil {
		return nil, err
	}
	if set.DurationPatterns, err = load(ctx, tx, storage.DurationPatterns); err != nil {
		return nil, err
	}
	if set.BotHealthMetrics, err = load(ctx, tx, storage.BotHealthMetrics); err != nil {
		return nil, err
	}
	return set, nil
}

// InTx runs fn in one database transaction and commits only if fn returns nil.
func (s *AnalyticsStore) InTx(ctx context.Context, fn func(tx storage.AnalyticsTx) error) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "analytics_tx", time.Since(start).Seconds(), err)
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&analyticsTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type analyticsTx struct {
	tx pgx.Tx
}

func (a *analyticsTx) ReplacePerformanceRankings(ctx context.Context, rows []domain.PerformanceRanking) error {
	return replace(ctx, a.tx, storage.PerformanceRankings, rows)
}

func (a *analyticsTx) ReplaceRiskMetrics(ctx context.Context, rows []domain.RiskMetric) error {
	return replace(ctx, a.tx, storage.RiskMetrics, rows)
}

func (a *analyticsTx) ReplaceStrategyPerformance(ctx context.Context, rows []domain.StrategyPerformance) error {
	return replace(ctx, a.tx, storage.StrategyPerformance, rows)
}

func (a *analyticsTx) ReplaceTimingAnalysis(ctx context.Context, rows []domain.TimingAnalysis) error {
	return replace(ctx, a.tx, storage.TimingAnalysis, rows)
}

func (a *analyticsTx) ReplacePairAnalytics(ctx context.Context, rows []domain.PairAnalytics) error {
	return replace(ctx, a.tx, storage.PairAnalytics, rows)
}

func (a *analyticsTx) ReplaceStopLossAnalytics(ctx context.Context, rows []domain.StopLossAnalytics) error {
	return replace(ctx, a.tx, storage.StopLossAnalytics, rows)
}

func (a *analyticsTx) ReplaceDurationPatterns(ctx context.Context, rows []domain.DurationPattern) error {
	return replace(ctx, a.tx, storage.DurationPatterns, rows)
}

func (a *analyticsTx) ReplaceBotHealthMetrics(ctx context.Context, rows []domain.BotHealthMetric) error {
	return replace(ctx, a.tx, storage.BotHealthMetrics, rows)
}

func (a *analyticsTx) CompleteSnapshot(ctx context.Context, id, lastTradeID int64) error {
	return transition(ctx, a.tx, id, domain.SnapshotCompleted, &lastTradeID, nil)
}

// replace deletes every row of the table and bulk-loads rows with COPY.
func replace[T any](ctx context.Context, tx pgx.Tx, t storage.Table[T], rows []T) error {
	if _, err := tx.Exec(ctx, t.DeleteSQL()); err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}
	if len(rows) == 0 {
		return nil
	}

	source := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return t.Values(&rows[i]), nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.Columns, source); err != nil {
		return fmt.Errorf("copy into %s: %w", t.Name, err)
	}
	return nil
}

func load[T any](ctx context.Context, q querier, t storage.Table[T]) ([]T, error) {
	rows, err := q.Query(ctx, t.SelectSQL())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.Name, err)
	}
	defer rows.Close()
	out, err := collect(rows, t)
	if err != nil {
		return nil, err
	}
	t.Sort(out)
	return out, nil
}
