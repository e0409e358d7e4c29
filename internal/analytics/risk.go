package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"trading-analytics/internal/domain"
)

// MetricTypeOverall labels the single risk_metrics row.
const MetricTypeOverall = "overall"

// DeriveRiskMetrics computes the overall risk row.
//
// stop_loss_effectiveness_pct is the share of realized losing volume that came from
// stop-loss exits. sharpe_ratio and max_drawdown_pct are proxies: mean/stddev of
// profit pct and the lowest running total of profit_abs.
func DeriveRiskMetrics(trades []*domain.Trade, asOf time.Time) []domain.RiskMetric {
	if len(trades) == 0 {
		return nil
	}

	triggered := 0
	slLoss := decimal.Zero
	allLoss := decimal.Zero
	pcts := make([]float64, 0, len(trades))
	for _, t := range trades {
		pcts = append(pcts, t.ProfitPct)
		if t.IsStopLoss() {
			triggered++
		}
		if t.ProfitAbs < 0 {
			loss := decimal.NewFromFloat(t.ProfitAbs).Abs()
			allLoss = allLoss.Add(loss)
			if t.IsStopLoss() {
				slLoss = slLoss.Add(loss)
			}
		}
	}

	effectiveness := 0.0
	if triggered > 0 && !allLoss.IsZero() {
		effectiveness = slLoss.Div(allLoss).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	return []domain.RiskMetric{{
		MetricType:               MetricTypeOverall,
		StopLossTriggeredCount:   triggered,
		StopLossEffectivenessPct: effectiveness,
		SharpeRatio:              computeSharpeProxy(pcts),
		MaxDrawdownPct:           computeDrawdownProxy(trades),
		AnalysisDate:             asOf,
	}}
}
