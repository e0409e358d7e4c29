// Package analytics derives the eight analytics tables from the closed-trade history.
// Every derivation is a pure full recompute: same trades in, same rows out.
package analytics

import (
	"fmt"
	"math"
	"time"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// Derivation computes the replacement rows of one analytics table and stores
// them in set. Derivations never read each other's output.
type Derivation struct {
	Table string
	Run   func(trades []*domain.Trade, asOf time.Time, set *domain.AnalyticsSet) error
}

// Derivations lists all eight derivations in write order.
var Derivations = []Derivation{
	{storage.TablePerformanceRankings, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.PerformanceRankings = DerivePerformanceRankings(tr, at)
		return nil
	}},
	{storage.TableRiskMetrics, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.RiskMetrics = DeriveRiskMetrics(tr, at)
		return nil
	}},
	{storage.TableStrategyPerformance, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.StrategyPerformance = DeriveStrategyPerformance(tr, at)
		return nil
	}},
	{storage.TableTimingAnalysis, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.TimingAnalysis = DeriveTimingAnalysis(tr, at)
		return nil
	}},
	{storage.TablePairAnalytics, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.PairAnalytics = DerivePairAnalytics(tr, at)
		return nil
	}},
	{storage.TableStopLossAnalytics, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.StopLossAnalytics = DeriveStopLossAnalytics(tr, at)
		return nil
	}},
	{storage.TableDurationPatterns, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.DurationPatterns = DeriveDurationPatterns(tr, at)
		return nil
	}},
	{storage.TableBotHealthMetrics, func(tr []*domain.Trade, at time.Time, set *domain.AnalyticsSet) error {
		set.BotHealthMetrics = DeriveBotHealthMetrics(tr, at)
		return nil
	}},
}

// Compute validates trades and runs every derivation over them.
// Open trades are ignored. asOf stamps analysis_date on every row.
func Compute(trades []*domain.Trade, asOf time.Time) (*domain.AnalyticsSet, error) {
	closed := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t == nil || t.IsOpen {
			continue
		}
		if err := validateTrade(t); err != nil {
			return nil, err
		}
		closed = append(closed, t)
	}

	asOf = asOf.UTC()
	set := &domain.AnalyticsSet{}
	for _, d := range Derivations {
		if err := d.Run(closed, asOf, set); err != nil {
			return nil, fmt.Errorf("derive %s: %w", d.Table, err)
		}
	}
	return set, nil
}

// validateTrade rejects values no aggregate can be computed from.
func validateTrade(t *domain.Trade) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"stake_amount", t.StakeAmount},
		{"profit_ratio", t.ProfitRatio},
		{"profit_pct", t.ProfitPct},
		{"profit_abs", t.ProfitAbs},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("trade %d: %s is not finite: %w", t.TradeID, f.name, storage.ErrInvalidInput)
		}
	}
	if t.StopLossPct != nil && (math.IsNaN(*t.StopLossPct) || math.IsInf(*t.StopLossPct, 0)) {
		return fmt.Errorf("trade %d: stop_loss_pct is not finite: %w", t.TradeID, storage.ErrInvalidInput)
	}
	if t.TradeDuration != nil && *t.TradeDuration < 0 {
		return fmt.Errorf("trade %d: negative trade_duration %d: %w", t.TradeID, *t.TradeDuration, storage.ErrInvalidInput)
	}
	return nil
}
