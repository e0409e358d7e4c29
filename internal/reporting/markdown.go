package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trading Analytics Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.AnalysisDate != nil {
		sb.WriteString(fmt.Sprintf("Analysis date: %s | Checkpoint trade: %d\n\n", r.AnalysisDate.Format(time.RFC3339), r.Checkpoint))
	} else {
		sb.WriteString("No completed analytics cycle yet.\n\n")
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Winning Trades | %d |\n", r.Summary.WinningTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate %% | %.2f |\n", r.Summary.WinRate))
	sb.WriteString(fmt.Sprintf("| Total Profit | %.4f |\n", r.Summary.TotalProfitAbs))
	sb.WriteString(fmt.Sprintf("| Pairs | %d |\n", r.Summary.PairCount))
	sb.WriteString(fmt.Sprintf("| Strategies | %d |\n", r.Summary.StrategyCount))
	sb.WriteString("\n")

	// Bot Health
	sb.WriteString("## Bot Health\n\n")
	if len(r.Health) > 0 {
		sb.WriteString("| Metric | Value | Unit | Status |\n")
		sb.WriteString("|--------|-------|------|--------|\n")
		for _, h := range r.Health {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %s | %s |\n", h.MetricName, h.MetricValue, h.MetricUnit, h.HealthStatus))
		}
	} else {
		sb.WriteString("No health metrics available.\n")
	}
	sb.WriteString("\n")

	// Risk
	sb.WriteString("## Risk\n\n")
	if r.Risk != nil {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Stop-Loss Exits | %d |\n", r.Risk.StopLossTriggeredCount))
		sb.WriteString(fmt.Sprintf("| Stop-Loss Share of Losses %% | %.2f |\n", r.Risk.StopLossEffectivenessPct))
		sb.WriteString(fmt.Sprintf("| Sharpe (proxy) | %.4f |\n", r.Risk.SharpeRatio))
		sb.WriteString(fmt.Sprintf("| Max Drawdown %% (proxy) | %.4f |\n", r.Risk.MaxDrawdownPct))
	} else {
		sb.WriteString("No risk metrics available.\n")
	}
	sb.WriteString("\n")

	// Rankings
	sb.WriteString("## Pair Rankings\n\n")
	if len(r.Rankings) > 0 {
		sb.WriteString("| Rank | Pair | Trades | WinRate | AvgProfit% | TotalProfit | AvgDuration | Best% | Worst% | Volume |\n")
		sb.WriteString("|------|------|--------|---------|------------|-------------|-------------|-------|--------|--------|\n")
		for _, p := range r.Rankings {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %.4f | %.4f | %.4f | %.1f | %.4f | %.4f | %.2f |\n",
				p.RankPosition, p.EntityName, p.TradeCount, p.WinRate, p.ProfitPct, p.ProfitAbs,
				p.AvgDurationMinutes, p.MaxProfitPct, p.MinProfitPct, p.TotalVolume))
		}
	} else {
		sb.WriteString("No rankings available.\n")
	}
	sb.WriteString("\n")

	// Strategies
	sb.WriteString("## Strategy Performance\n\n")
	if len(r.Strategies) > 0 {
		sb.WriteString("| Strategy | Trades | Wins | Losses | WinRate% | AvgProfit% | ProfitFactor | Expectancy | Consistency |\n")
		sb.WriteString("|----------|--------|------|--------|----------|------------|--------------|------------|-------------|\n")
		for _, s := range r.Strategies {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.2f | %.4f | %.4f | %.4f | %.4f |\n",
				s.StrategyName, s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate,
				s.AvgProfitPct, s.ProfitFactor, s.Expectancy, s.ConsistencyScore))
		}
	} else {
		sb.WriteString("No strategy performance available.\n")
	}
	sb.WriteString("\n")

	// Pairs
	sb.WriteString("## Pair Analytics\n\n")
	if len(r.Pairs) > 0 {
		sb.WriteString("| Pair | Trades | WinRate% | AvgProfit% | TotalProfit | AvgDuration | Volatility% |\n")
		sb.WriteString("|------|--------|----------|------------|-------------|-------------|-------------|\n")
		for _, p := range r.Pairs {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f | %.4f | %.1f | %.4f |\n",
				p.Pair, p.TotalTrades, p.WinRate, p.AvgProfitPct, p.TotalProfitAbs,
				p.AvgTradeDurationMinutes, p.PriceVolatilityPct))
		}
	} else {
		sb.WriteString("No pair analytics available.\n")
	}
	sb.WriteString("\n")

	// Stop-loss
	sb.WriteString("## Stop-Loss\n\n")
	if len(r.StopLoss) > 0 {
		sb.WriteString("| Pair | Level% | WithSL | Triggered | Effectiveness% | AvgLossTriggered% | AvgProfitOther% |\n")
		sb.WriteString("|------|--------|--------|-----------|----------------|-------------------|-----------------|\n")
		for _, s := range r.StopLoss {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %d | %d | %.2f | %s | %s |\n",
				s.Pair, s.StopLossLevelPct, s.TotalTradesWithSL, s.SLTriggeredCount, s.SLEffectivenessPct,
				optFloat(s.AvgLossWhenTriggeredPct), optFloat(s.AvgProfitWhenNotTriggeredPct)))
		}
	} else {
		sb.WriteString("No stop-loss data available.\n")
	}
	sb.WriteString("\n")

	// Durations
	sb.WriteString("## Duration Patterns\n\n")
	if len(r.Durations) > 0 {
		sb.WriteString("| Category | Range (min) | Trades | WinRate% | AvgProfit% | OptimalExit |\n")
		sb.WriteString("|----------|-------------|--------|----------|------------|-------------|\n")
		for _, d := range r.Durations {
			sb.WriteString(fmt.Sprintf("| %s | %d-%d | %d | %.2f | %.4f | %.1f |\n",
				d.DurationCategory, d.MinDurationMinutes, d.MaxDurationMinutes, d.TradeCount,
				d.WinRate, d.AvgProfitPct, d.OptimalExitTimingMinutes))
		}
	} else {
		sb.WriteString("No duration patterns available.\n")
	}
	sb.WriteString("\n")

	// Timing
	sb.WriteString("## Timing\n\n")
	sb.WriteString(fmt.Sprintf("Best hour: %s | Worst hour: %s | Weekend avg%%: %s | Weekday avg%%: %s\n\n",
		optHour(r.Timing.BestHour), optHour(r.Timing.WorstHour),
		optFloat(r.Timing.WeekendPct), optFloat(r.Timing.WeekdayPct)))
	if len(r.Timing.Days) > 0 {
		sb.WriteString("| Day | Trades | WinRate% | AvgProfit% |\n")
		sb.WriteString("|-----|--------|----------|------------|\n")
		for _, d := range r.Timing.Days {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f |\n", d.TimeValue, d.TradeCount, d.WinRate, d.AvgProfitPct))
		}
		sb.WriteString("\n")
	}

	// Snapshots
	sb.WriteString("## Recent Snapshots\n\n")
	if len(r.Snapshots) > 0 {
		sb.WriteString("| ID | Run | Status | New Trades | Last Trade | Created | Error |\n")
		sb.WriteString("|----|-----|--------|------------|------------|---------|-------|\n")
		for _, s := range r.Snapshots {
			msg := ""
			if s.ErrorMessage != nil {
				msg = strings.ReplaceAll(*s.ErrorMessage, "|", "/")
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %d | %s | %s |\n",
				s.ID, s.RunID, s.Status, s.RecordsProcessed, s.LastTradeID,
				s.CreatedAt.Format(time.RFC3339), msg))
		}
	} else {
		sb.WriteString("No snapshots recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

func optHour(h *int) string {
	if h == nil {
		return "-"
	}
	return fmt.Sprintf("%02d:00", *h)
}
