package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/observability"
	"trading-analytics/internal/storage"
)

// AnalyticsStore implements storage.AnalyticsStore using SQLite.
type AnalyticsStore struct {
	db *DB
}

// NewAnalyticsStore creates a new AnalyticsStore.
func NewAnalyticsStore(db *DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Load reads all eight tables inside one read transaction.
func (s *AnalyticsStore) Load(ctx context.Context) (*domain.AnalyticsSet, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

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
		observability.RecordDBQuery("sqlite", "analytics_tx", time.Since(start).Seconds(), err)
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&analyticsTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type analyticsTx struct {
	tx *sqlx.Tx
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

// replace deletes every row of the table and inserts rows through one prepared statement.
func replace[T any](ctx context.Context, tx *sqlx.Tx, t storage.Table[T], rows []T) error {
	if _, err := tx.ExecContext(ctx, t.DeleteSQL()); err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, t.InsertSQL(storage.Question))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", t.Name, err)
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, t.Values(&rows[i])...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.Name, err)
		}
	}
	return nil
}

func load[T any](ctx context.Context, tx *sqlx.Tx, t storage.Table[T]) ([]T, error) {
	rows, err := tx.QueryxContext(ctx, t.SelectSQL())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.Name, err)
	}
	out, err := collect(rows, t)
	if err != nil {
		return nil, err
	}
	t.Sort(out)
	return out, nil
}
