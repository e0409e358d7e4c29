package analytics

import (
	"time"

	"trading-analytics/internal/domain"
)

// DeriveStrategyPerformance computes one row per strategy label.
func DeriveStrategyPerformance(trades []*domain.Trade, asOf time.Time) []domain.StrategyPerformance {
	groups := groupBy(trades, func(t *domain.Trade) string { return t.Strategy })
	if len(groups) == 0 {
		return nil
	}

	rows := make([]domain.StrategyPerformance, 0, len(groups))
	for _, g := range groups {
		s := summarize(g.trades)
		rows = append(rows, domain.StrategyPerformance{
			StrategyName:            g.key,
			TotalTrades:             s.count,
			WinningTrades:           s.wins,
			LosingTrades:            s.losses(),
			WinRate:                 s.winRate(),
			AvgProfitPct:            s.meanPct(),
			TotalProfitAbs:          s.totalAbs(),
			ProfitFactor:            computeProfitFactor(g.trades),
			Expectancy:              s.meanPct() * s.winRate(),
			BestTradePct:            s.maxPct,
			WorstTradePct:           s.minPct,
			ConsistencyScore:        computeConsistency(s.pcts),
			AvgTradeDurationMinutes: s.avgDuration(),
			AnalysisDate:            asOf,
		})
	}
	return rows
}
