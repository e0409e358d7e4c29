package reporting

import (
	"time"

	"trading-analytics/internal/domain"
)

// Report is the Markdown/CSV view of the current analytics tables.
type Report struct {
	// Metadata
	GeneratedAt  time.Time
	AnalysisDate *time.Time // nil before the first completed cycle
	Checkpoint   int64      // last_trade_id of the latest completed snapshot

	Summary Summary

	Health   []domain.BotHealthMetric
	Risk     *domain.RiskMetric // nil without data
	Timing   TimingSummary
	Rankings []domain.PerformanceRanking // rank order

	Strategies []domain.StrategyPerformance
	Pairs      []domain.PairAnalytics
	StopLoss   []domain.StopLossAnalytics
	Durations  []domain.DurationPattern

	// Snapshot history, newest first
	Snapshots []*domain.Snapshot
}

// Summary totals the strategy rows.
type Summary struct {
	TotalTrades    int
	WinningTrades  int
	WinRate        float64 // percent
	TotalProfitAbs float64
	PairCount      int
	StrategyCount  int
}

// TimingSummary holds the overall timing row and the hour buckets.
type TimingSummary struct {
	BestHour   *int
	WorstHour  *int
	WeekendPct *float64
	WeekdayPct *float64
	Hours      []domain.TimingAnalysis
	Days       []domain.TimingAnalysis
}
