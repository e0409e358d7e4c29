package analytics

import (
	"time"

	"trading-analytics/internal/domain"
)

// Health thresholds on the fractional win rate and mean profit pct.
const (
	HealthyWinRate   = 0.70
	HealthyAvgProfit = 0.5
	WarningWinRate   = 0.50
	WarningAvgProfit = 0.0

	// WorstLossCriticalPct is the worst single-trade loss still considered HEALTHY (exclusive).
	WorstLossCriticalPct = -20.0
)

// Bot health metric names
const (
	MetricOverallWinRate = "overall_win_rate"
	MetricAvgProfitPct   = "avg_profit_pct"
	MetricTotalTrades    = "total_trades"
	MetricTotalProfit    = "total_profit"
	MetricWorstLoss      = "worst_loss"
	MetricBestWin        = "best_win"
)

// HealthStatusFor classifies overall bot health.
func HealthStatusFor(winRate, avgProfitPct float64) domain.HealthStatus {
	switch {
	case winRate >= HealthyWinRate && avgProfitPct >= HealthyAvgProfit:
		return domain.HealthHealthy
	case winRate >= WarningWinRate && avgProfitPct >= WarningAvgProfit:
		return domain.HealthWarning
	default:
		return domain.HealthCritical
	}
}

// WorstLossStatus classifies the worst_loss gauge independently of overall status.
func WorstLossStatus(worstLossPct float64) domain.HealthStatus {
	if worstLossPct > WorstLossCriticalPct {
		return domain.HealthHealthy
	}
	return domain.HealthWarning
}

// DeriveBotHealthMetrics computes the six bot health gauges.
func DeriveBotHealthMetrics(trades []*domain.Trade, asOf time.Time) []domain.BotHealthMetric {
	if len(trades) == 0 {
		return nil
	}

	s := summarize(trades)
	winRate := s.winRate()
	avg := s.meanPct()
	status := HealthStatusFor(winRate, avg)

	metric := func(name string, value float64, unit string, st domain.HealthStatus, warn, crit *float64) domain.BotHealthMetric {
		return domain.BotHealthMetric{
			MetricName:        name,
			MetricValue:       value,
			MetricUnit:        unit,
			HealthStatus:      st,
			ThresholdWarning:  warn,
			ThresholdCritical: crit,
			LastCalculation:   asOf,
			AnalysisDate:      asOf,
		}
	}

	return []domain.BotHealthMetric{
		metric(MetricOverallWinRate, winRate*100, "%", status, floatPtr(60), floatPtr(40)),
		metric(MetricAvgProfitPct, avg, "%", status, floatPtr(HealthyAvgProfit), floatPtr(WarningAvgProfit)),
		metric(MetricTotalTrades, float64(s.count), "count", domain.HealthHealthy, nil, nil),
		metric(MetricTotalProfit, s.totalAbs(), "abs", status, nil, nil),
		metric(MetricWorstLoss, s.minPct, "%", WorstLossStatus(s.minPct), floatPtr(-10), floatPtr(WorstLossCriticalPct)),
		metric(MetricBestWin, s.maxPct, "%", domain.HealthHealthy, nil, nil),
	}
}
