package engine

import (
	"context"
	"fmt"

	"trading-analytics/internal/analytics"
	"trading-analytics/internal/domain"
)

// HealthReport is the read-only view logged by the periodic health job.
type HealthReport struct {
	Gauges       []domain.BotHealthMetric
	LastSnapshot *domain.Snapshot // nil before the first cycle
	Checkpoint   int64
}

// Overall returns the status of the overall_win_rate gauge, or "" without data.
func (r *HealthReport) Overall() domain.HealthStatus {
	for _, g := range r.Gauges {
		if g.MetricName == analytics.MetricOverallWinRate {
			return g.HealthStatus
		}
	}
	return ""
}

// CheckHealth reads the current bot health gauges and the latest snapshot.
// It never writes and never starts a cycle.
func (e *Engine) CheckHealth(ctx context.Context) (*HealthReport, error) {
	set, err := e.analytics.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}
	snaps, err := e.snapshots.List(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	report := &HealthReport{Gauges: set.BotHealthMetrics, Checkpoint: e.LastTradeID()}
	if len(snaps) > 0 {
		report.LastSnapshot = snaps[0]
	}

	for _, g := range report.Gauges {
		e.metrics.SetHealthGauge(g.MetricName, g.MetricValue)
	}
	return report, nil
}
