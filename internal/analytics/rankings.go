package analytics

import (
	"sort"
	"time"

	"trading-analytics/internal/domain"
)

// Ranking labels
const (
	RankingTypeByPair     = "by_pair"
	EntityTypeTradingPair = "trading_pair"
)

// DerivePerformanceRankings ranks pairs by mean profit pct, best first.
// Positions are 1..n; equal means keep pair order.
func DerivePerformanceRankings(trades []*domain.Trade, asOf time.Time) []domain.PerformanceRanking {
	groups := groupBy(trades, func(t *domain.Trade) string { return t.Pair })
	if len(groups) == 0 {
		return nil
	}

	rows := make([]domain.PerformanceRanking, 0, len(groups))
	for _, g := range groups {
		s := summarize(g.trades)
		rows = append(rows, domain.PerformanceRanking{
			RankingType:        RankingTypeByPair,
			EntityName:         g.key,
			EntityType:         EntityTypeTradingPair,
			ProfitRatio:        s.meanRatio(),
			ProfitPct:          s.meanPct(),
			ProfitAbs:          s.totalAbs(),
			TradeCount:         s.count,
			WinRate:            s.winRate(),
			AvgDurationMinutes: s.avgDuration(),
			MaxProfitPct:       s.maxPct,
			MinProfitPct:       s.minPct,
			TotalVolume:        s.totalStake(),
			AnalysisDate:       asOf,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ProfitPct > rows[j].ProfitPct
	})
	for i := range rows {
		rows[i].RankPosition = i + 1
	}
	return rows
}
