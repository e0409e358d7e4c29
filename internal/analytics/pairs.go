package analytics

import (
	"time"

	"trading-analytics/internal/domain"
)

// DerivePairAnalytics computes one row per (pair, base, quote).
func DerivePairAnalytics(trades []*domain.Trade, asOf time.Time) []domain.PairAnalytics {
	groups := groupBy(trades, func(t *domain.Trade) string {
		return t.Pair + "\x00" + t.BaseCurrency + "\x00" + t.QuoteCurrency
	})
	if len(groups) == 0 {
		return nil
	}

	rows := make([]domain.PairAnalytics, 0, len(groups))
	for _, g := range groups {
		first := g.trades[0]
		s := summarize(g.trades)
		rows = append(rows, domain.PairAnalytics{
			Pair:                    first.Pair,
			BaseCurrency:            first.BaseCurrency,
			QuoteCurrency:           first.QuoteCurrency,
			TotalTrades:             s.count,
			WinningTrades:           s.wins,
			LosingTrades:            s.losses(),
			WinRate:                 s.winRate(),
			AvgProfitPct:            s.meanPct(),
			TotalProfitAbs:          s.totalAbs(),
			AvgTradeDurationMinutes: s.avgDuration(),
			PriceVolatilityPct:      computePopStddev(s.pcts),
			AnalysisDate:            asOf,
		})
	}
	return rows
}
