package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// Exporter appends the analytics of completed snapshots to ClickHouse for dashboards.
// Each table keeps every exported snapshot, keyed by snapshot_id.
type Exporter struct {
	conn *Conn
	now  func() time.Time
}

// NewExporter creates a new Exporter.
func NewExporter(conn *Conn) *Exporter {
	return &Exporter{conn: conn, now: time.Now}
}

// Export writes one batch per non-empty table. Tables already sent stay sent if a
// later table fails; readers filter on snapshot_id.
func (e *Exporter) Export(ctx context.Context, snapshotID int64, set *domain.AnalyticsSet) error {
	if set == nil || snapshotID <= 0 {
		return storage.ErrInvalidInput
	}

	b := batch{conn: e.conn, snapshotID: uint64(snapshotID), exportedAt: e.now().UTC()}
	steps := []func(context.Context) error{
		func(ctx context.Context) error {
			return send(ctx, b, storage.PerformanceRankings, set.PerformanceRankings)
		},
		func(ctx context.Context) error { return send(ctx, b, storage.RiskMetrics, set.RiskMetrics) },
		func(ctx context.Context) error {
			return send(ctx, b, storage.StrategyPerformance, set.StrategyPerformance)
		},
		func(ctx context.Context) error { return send(ctx, b, storage.TimingAnalysis, set.TimingAnalysis) },
		func(ctx context.Context) error { return send(ctx, b, storage.PairAnalytics, set.PairAnalytics) },
		func(ctx context.Context) error { return send(ctx, b, storage.StopLossAnalytics, set.StopLossAnalytics) },
		func(ctx context.Context) error { return send(ctx, b, storage.DurationPatterns, set.DurationPatterns) },
		func(ctx context.Context) error { return send(ctx, b, storage.BotHealthMetrics, set.BotHealthMetrics) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CountRows returns how many rows of table were exported for snapshotID.
func (e *Exporter) CountRows(ctx context.Context, table string, snapshotID int64) (uint64, error) {
	var n uint64
	query := fmt.Sprintf("SELECT count() FROM %s WHERE snapshot_id = ?", table)
	if err := e.conn.QueryRow(ctx, query, uint64(snapshotID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", table, err)
	}
	return n, nil
}

type batch struct {
	conn       *Conn
	snapshotID uint64
	exportedAt time.Time
}

func send[T any](ctx context.Context, b batch, t storage.Table[T], rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (snapshot_id, exported_at, %s)", t.Name, t.ColumnList())
	chBatch, err := b.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", t.Name, err)
	}

	for i := range rows {
		args := append([]any{b.snapshotID, b.exportedAt}, columnValues(t.Values(&rows[i]))...)
		if err := chBatch.Append(args...); err != nil {
			return fmt.Errorf("append %s row: %w", t.Name, err)
		}
	}

	if err := chBatch.Send(); err != nil {
		return fmt.Errorf("send %s batch: %w", t.Name, err)
	}
	return nil
}

// columnValues widens Go ints to the Int64 columns of the export schema.
func columnValues(values []any) []any {
	for i, v := range values {
		switch x := v.(type) {
		case int:
			values[i] = int64(x)
		case *int:
			if x == nil {
				values[i] = (*int64)(nil)
			} else {
				n := int64(*x)
				values[i] = &n
			}
		case time.Time:
			values[i] = x.UTC()
		}
	}
	return values
}
