package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// DefaultSnapshotLimit is how many snapshots Generate lists.
const DefaultSnapshotLimit = 10

// Generator produces reports from stored analytics.
type Generator struct {
	analytics     storage.AnalyticsStore
	snapshots     storage.SnapshotStore
	snapshotLimit int
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(analytics storage.AnalyticsStore, snapshots storage.SnapshotStore) *Generator {
	return &Generator{
		analytics:     analytics,
		snapshots:     snapshots,
		snapshotLimit: DefaultSnapshotLimit,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithSnapshotLimit sets how many snapshots are listed. 0 lists all.
func (g *Generator) WithSnapshotLimit(n int) *Generator {
	g.snapshotLimit = n
	return g
}

// Generate reads the analytics tables and the snapshot log into a Report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	set, err := g.analytics.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}

	snaps, err := g.snapshots.List(ctx, g.snapshotLimit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	r := &Report{
		GeneratedAt: g.now(),
		Health:      set.BotHealthMetrics,
		Rankings:    sortedRankings(set.PerformanceRankings),
		Strategies:  set.StrategyPerformance,
		Pairs:       set.PairAnalytics,
		StopLoss:    set.StopLossAnalytics,
		Durations:   set.DurationPatterns,
		Snapshots:   snaps,
		Summary:     summarize(set),
		Timing:      timingSummary(set.TimingAnalysis),
	}

	if len(set.RiskMetrics) > 0 {
		risk := set.RiskMetrics[0]
		r.Risk = &risk
		r.AnalysisDate = &risk.AnalysisDate
	}

	last, err := g.snapshots.LastCompleted(ctx)
	switch {
	case err == nil:
		r.Checkpoint = last.LastTradeID
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("get last completed snapshot: %w", err)
	}

	return r, nil
}

func summarize(set *domain.AnalyticsSet) Summary {
	s := Summary{
		PairCount:     len(set.PairAnalytics),
		StrategyCount: len(set.StrategyPerformance),
	}
	for _, sp := range set.StrategyPerformance {
		s.TotalTrades += sp.TotalTrades
		s.WinningTrades += sp.WinningTrades
		s.TotalProfitAbs += sp.TotalProfitAbs
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
	return s
}

func timingSummary(rows []domain.TimingAnalysis) TimingSummary {
	var ts TimingSummary
	for _, row := range rows {
		switch row.TimeCategory {
		case domain.TimeCategoryOverall:
			ts.BestHour = row.BestPerformanceHour
			ts.WorstHour = row.WorstPerformanceHour
			ts.WeekendPct = row.WeekendPerformancePct
			ts.WeekdayPct = row.WeekdayPerformancePct
		case domain.TimeCategoryHourOfDay:
			ts.Hours = append(ts.Hours, row)
		case domain.TimeCategoryDayOfWeek:
			ts.Days = append(ts.Days, row)
		}
	}
	return ts
}

func sortedRankings(rows []domain.PerformanceRanking) []domain.PerformanceRanking {
	out := make([]domain.PerformanceRanking, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RankPosition < out[j].RankPosition })
	return out
}
