package analytics

import (
	"time"

	"trading-analytics/internal/domain"
)

// AnalysisTypeByPair labels stop_loss_analytics rows.
const AnalysisTypeByPair = "by_pair"

// StopLossFloorPct is the loss floor a triggered stop-loss must stay above to count as effective.
const StopLossFloorPct = -10.0

// DeriveStopLossAnalytics computes one row per pair, over trades that had a stop-loss configured.
func DeriveStopLossAnalytics(trades []*domain.Trade, asOf time.Time) []domain.StopLossAnalytics {
	withSL := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.StopLossPct != nil {
			withSL = append(withSL, t)
		}
	}

	groups := groupBy(withSL, func(t *domain.Trade) string { return t.Pair })
	if len(groups) == 0 {
		return nil
	}

	rows := make([]domain.StopLossAnalytics, 0, len(groups))
	for _, g := range groups {
		var levels, triggeredPcts, otherPcts []float64
		effective := 0
		for _, t := range g.trades {
			levels = append(levels, *t.StopLossPct)
			if t.IsStopLoss() {
				triggeredPcts = append(triggeredPcts, t.ProfitPct)
				if t.ProfitPct > StopLossFloorPct {
					effective++
				}
			} else {
				otherPcts = append(otherPcts, t.ProfitPct)
			}
		}

		row := domain.StopLossAnalytics{
			AnalysisType:      AnalysisTypeByPair,
			Pair:              g.key,
			StopLossLevelPct:  computeMean(levels),
			TotalTradesWithSL: len(g.trades),
			SLTriggeredCount:  len(triggeredPcts),
			AnalysisDate:      asOf,
		}
		if len(triggeredPcts) > 0 {
			row.SLEffectivenessPct = float64(effective) / float64(len(triggeredPcts)) * 100
			row.AvgLossWhenTriggeredPct = floatPtr(computeMean(triggeredPcts))
		}
		if len(otherPcts) > 0 {
			row.AvgProfitWhenNotTriggeredPct = floatPtr(computeMean(otherPcts))
		}
		rows = append(rows, row)
	}
	return rows
}
