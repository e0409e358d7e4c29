package storage

import (
	"fmt"
	"sort"
	"strings"

	"trading-analytics/internal/domain"
)

// Table names. Column names are a public contract for dashboards and must not change.
const (
	TableTrades              = "trades"
	TableSnapshots           = "analysis_snapshots"
	TablePerformanceRankings = "performance_rankings"
	TableRiskMetrics         = "risk_metrics"
	TableStrategyPerformance = "strategy_performance"
	TableTimingAnalysis      = "timing_analysis"
	TablePairAnalytics       = "pair_analytics"
	TableStopLossAnalytics   = "stop_loss_analytics"
	TableDurationPatterns    = "duration_patterns"
	TableBotHealthMetrics    = "bot_health_metrics"
)

// AnalyticsTables lists the eight derived tables in write order.
var AnalyticsTables = []string{
	TablePerformanceRankings,
	TableRiskMetrics,
	TableStrategyPerformance,
	TableTimingAnalysis,
	TablePairAnalytics,
	TableStopLossAnalytics,
	TableDurationPatterns,
	TableBotHealthMetrics,
}

// Table maps a row type onto SQL columns. Values and Fields both follow Columns order,
// so SQL backends can insert and scan without repeating the column list.
type Table[T any] struct {
	Name    string
	Columns []string
	OrderBy string

	// Less is OrderBy in Go. Every backend returns rows in this order; SQL collations
	// may differ from byte order, so loaded rows are sorted again.
	Less func(a, b *T) bool

	// Values returns insert arguments.
	Values func(r *T) []any

	// Fields returns scan destinations.
	Fields func(r *T) []any
}

// ColumnList returns the comma separated column list.
func (t Table[T]) ColumnList() string {
	return strings.Join(t.Columns, ", ")
}

// InsertSQL builds a single-row INSERT. bindvar renders the n-th (1-based) placeholder.
func (t Table[T]) InsertSQL(bindvar func(n int) string) string {
	marks := make([]string, len(t.Columns))
	for i := range t.Columns {
		marks[i] = bindvar(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, t.ColumnList(), strings.Join(marks, ", "))
}

// SelectSQL builds a SELECT of all columns in the table's natural order.
func (t Table[T]) SelectSQL() string {
	q := fmt.Sprintf("SELECT %s FROM %s", t.ColumnList(), t.Name)
	if t.OrderBy != "" {
		q += " ORDER BY " + t.OrderBy
	}
	return q
}

// Sort orders rows by Less in place. Equal rows keep their relative order.
func (t Table[T]) Sort(rows []T) {
	if t.Less == nil {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return t.Less(&rows[i], &rows[j]) })
}

// DeleteSQL builds the statement that clears the table before a replace.
func (t Table[T]) DeleteSQL() string {
	return "DELETE FROM " + t.Name
}

// Dollar renders Postgres placeholders ($1, $2, ...).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question renders SQLite and ClickHouse placeholders.
func Question(int) string { return "?" }

// Trades describes the trades table.
var Trades = Table[domain.Trade]{
	Name: TableTrades,
	Columns: []string{
		"trade_id", "pair", "base_currency", "quote_currency", "strategy",
		"stake_amount", "profit_ratio", "profit_pct", "profit_abs",
		"open_date", "close_date", "trade_duration",
		"exit_reason", "stop_loss_pct", "is_open",
	},
	OrderBy: "trade_id ASC",
	Less:    func(a, b *domain.Trade) bool { return a.TradeID < b.TradeID },
	Values: func(t *domain.Trade) []any {
		return []any{
			t.TradeID, t.Pair, t.BaseCurrency, t.QuoteCurrency, t.Strategy,
			t.StakeAmount, t.ProfitRatio, t.ProfitPct, t.ProfitAbs,
			t.OpenDate, t.CloseDate, t.TradeDuration,
			t.ExitReason, t.StopLossPct, t.IsOpen,
		}
	},
	Fields: func(t *domain.Trade) []any {
		return []any{
			&t.TradeID, &t.Pair, &t.BaseCurrency, &t.QuoteCurrency, &t.Strategy,
			&t.StakeAmount, &t.ProfitRatio, &t.ProfitPct, &t.ProfitAbs,
			&t.OpenDate, &t.CloseDate, &t.TradeDuration,
			&t.ExitReason, &t.StopLossPct, &t.IsOpen,
		}
	},
}

// PerformanceRankings describes the performance_rankings table.
var PerformanceRankings = Table[domain.PerformanceRanking]{
	Name: TablePerformanceRankings,
	Columns: []string{
		"ranking_type", "entity_name", "entity_type",
		"profit_ratio", "profit_pct", "profit_abs", "trade_count", "win_rate",
		"avg_duration_minutes", "max_profit_pct", "min_profit_pct", "total_volume",
		"rank_position", "analysis_date",
	},
	OrderBy: "rank_position ASC",
	Less:    func(a, b *domain.PerformanceRanking) bool { return a.RankPosition < b.RankPosition },
	Values: func(r *domain.PerformanceRanking) []any {
		return []any{
			r.RankingType, r.EntityName, r.EntityType,
			r.ProfitRatio, r.ProfitPct, r.ProfitAbs, r.TradeCount, r.WinRate,
			r.AvgDurationMinutes, r.MaxProfitPct, r.MinProfitPct, r.TotalVolume,
			r.RankPosition, r.AnalysisDate,
		}
	},
	Fields: func(r *domain.PerformanceRanking) []any {
		return []any{
			&r.RankingType, &r.EntityName, &r.EntityType,
			&r.ProfitRatio, &r.ProfitPct, &r.ProfitAbs, &r.TradeCount, &r.WinRate,
			&r.AvgDurationMinutes, &r.MaxProfitPct, &r.MinProfitPct, &r.TotalVolume,
			&r.RankPosition, &r.AnalysisDate,
		}
	},
}

// RiskMetrics describes the risk_metrics table.
var RiskMetrics = Table[domain.RiskMetric]{
	Name: TableRiskMetrics,
	Columns: []string{
		"metric_type", "stop_loss_triggered_count", "stop_loss_effectiveness_pct",
		"sharpe_ratio", "max_drawdown_pct", "analysis_date",
	},
	OrderBy: "metric_type ASC",
	Less:    func(a, b *domain.RiskMetric) bool { return a.MetricType < b.MetricType },
	Values: func(r *domain.RiskMetric) []any {
		return []any{
			r.MetricType, r.StopLossTriggeredCount, r.StopLossEffectivenessPct,
			r.SharpeRatio, r.MaxDrawdownPct, r.AnalysisDate,
		}
	},
	Fields: func(r *domain.RiskMetric) []any {
		return []any{
			&r.MetricType, &r.StopLossTriggeredCount, &r.StopLossEffectivenessPct,
			&r.SharpeRatio, &r.MaxDrawdownPct, &r.AnalysisDate,
		}
	},
}

// StrategyPerformance describes the strategy_performance table.
var StrategyPerformance = Table[domain.StrategyPerformance]{
	Name: TableStrategyPerformance,
	Columns: []string{
		"strategy_name", "total_trades", "winning_trades", "losing_trades",
		"win_rate", "avg_profit_pct", "total_profit_abs", "profit_factor", "expectancy",
		"best_trade_pct", "worst_trade_pct", "consistency_score",
		"avg_trade_duration_minutes", "analysis_date",
	},
	OrderBy: "strategy_name ASC",
	Less:    func(a, b *domain.StrategyPerformance) bool { return a.StrategyName < b.StrategyName },
	Values: func(r *domain.StrategyPerformance) []any {
		return []any{
			r.StrategyName, r.TotalTrades, r.WinningTrades, r.LosingTrades,
			r.WinRate, r.AvgProfitPct, r.TotalProfitAbs, r.ProfitFactor, r.Expectancy,
			r.BestTradePct, r.WorstTradePct, r.ConsistencyScore,
			r.AvgTradeDurationMinutes, r.AnalysisDate,
		}
	},
	Fields: func(r *domain.StrategyPerformance) []any {
		return []any{
			&r.StrategyName, &r.TotalTrades, &r.WinningTrades, &r.LosingTrades,
			&r.WinRate, &r.AvgProfitPct, &r.TotalProfitAbs, &r.ProfitFactor, &r.Expectancy,
			&r.BestTradePct, &r.WorstTradePct, &r.ConsistencyScore,
			&r.AvgTradeDurationMinutes, &r.AnalysisDate,
		}
	},
}

// TimingAnalysis describes the timing_analysis table.
var TimingAnalysis = Table[domain.TimingAnalysis]{
	Name: TableTimingAnalysis,
	Columns: []string{
		"time_category", "time_value", "trade_count", "win_rate", "avg_profit_pct",
		"total_profit_abs", "best_performance_hour", "worst_performance_hour",
		"weekend_performance_pct", "weekday_performance_pct",
		"duration_minutes_avg", "analysis_date",
	},
	OrderBy: "time_category ASC, time_value ASC",
	Less: func(a, b *domain.TimingAnalysis) bool {
		if a.TimeCategory != b.TimeCategory {
			return a.TimeCategory < b.TimeCategory
		}
		return a.TimeValue < b.TimeValue
	},
	Values: func(r *domain.TimingAnalysis) []any {
		return []any{
			r.TimeCategory, r.TimeValue, r.TradeCount, r.WinRate, r.AvgProfitPct,
			r.TotalProfitAbs, r.BestPerformanceHour, r.WorstPerformanceHour,
			r.WeekendPerformancePct, r.WeekdayPerformancePct,
			r.DurationMinutesAvg, r.AnalysisDate,
		}
	},
	Fields: func(r *domain.TimingAnalysis) []any {
		return []any{
			&r.TimeCategory, &r.TimeValue, &r.TradeCount, &r.WinRate, &r.AvgProfitPct,
			&r.TotalProfitAbs, &r.BestPerformanceHour, &r.WorstPerformanceHour,
			&r.WeekendPerformancePct, &r.WeekdayPerformancePct,
			&r.DurationMinutesAvg, &r.AnalysisDate,
		}
	},
}

// PairAnalytics describes the pair_analytics table.
var PairAnalytics = Table[domain.PairAnalytics]{
	Name: TablePairAnalytics,
	Columns: []string{
		"pair", "base_currency", "quote_currency", "total_trades",
		"winning_trades", "losing_trades", "win_rate", "avg_profit_pct",
		"total_profit_abs", "avg_trade_duration_minutes", "price_volatility_pct",
		"analysis_date",
	},
	OrderBy: "pair ASC, base_currency ASC, quote_currency ASC",
	Less: func(a, b *domain.PairAnalytics) bool {
		if a.Pair != b.Pair {
			return a.Pair < b.Pair
		}
		if a.BaseCurrency != b.BaseCurrency {
			return a.BaseCurrency < b.BaseCurrency
		}
		return a.QuoteCurrency < b.QuoteCurrency
	},
	Values: func(r *domain.PairAnalytics) []any {
		return []any{
			r.Pair, r.BaseCurrency, r.QuoteCurrency, r.TotalTrades,
			r.WinningTrades, r.LosingTrades, r.WinRate, r.AvgProfitPct,
			r.TotalProfitAbs, r.AvgTradeDurationMinutes, r.PriceVolatilityPct,
			r.AnalysisDate,
		}
	},
	Fields: func(r *domain.PairAnalytics) []any {
		return []any{
			&r.Pair, &r.BaseCurrency, &r.QuoteCurrency, &r.TotalTrades,
			&r.WinningTrades, &r.LosingTrades, &r.WinRate, &r.AvgProfitPct,
			&r.TotalProfitAbs, &r.AvgTradeDurationMinutes, &r.PriceVolatilityPct,
			&r.AnalysisDate,
		}
	},
}

// StopLossAnalytics describes the stop_loss_analytics table.
var StopLossAnalytics = Table[domain.StopLossAnalytics]{
	Name: TableStopLossAnalytics,
	Columns: []string{
		"analysis_type", "pair", "stop_loss_level_pct", "total_trades_with_sl",
		"sl_triggered_count", "sl_effectiveness_pct",
		"avg_loss_when_triggered_pct", "avg_profit_when_not_triggered_pct",
		"analysis_date",
	},
	OrderBy: "pair ASC",
	Less:    func(a, b *domain.StopLossAnalytics) bool { return a.Pair < b.Pair },
	Values: func(r *domain.StopLossAnalytics) []any {
		return []any{
			r.AnalysisType, r.Pair, r.StopLossLevelPct, r.TotalTradesWithSL,
			r.SLTriggeredCount, r.SLEffectivenessPct,
			r.AvgLossWhenTriggeredPct, r.AvgProfitWhenNotTriggeredPct,
			r.AnalysisDate,
		}
	},
	Fields: func(r *domain.StopLossAnalytics) []any {
		return []any{
			&r.AnalysisType, &r.Pair, &r.StopLossLevelPct, &r.TotalTradesWithSL,
			&r.SLTriggeredCount, &r.SLEffectivenessPct,
			&r.AvgLossWhenTriggeredPct, &r.AvgProfitWhenNotTriggeredPct,
			&r.AnalysisDate,
		}
	},
}

// DurationPatterns describes the duration_patterns table.
var DurationPatterns = Table[domain.DurationPattern]{
	Name: TableDurationPatterns,
	Columns: []string{
		"pattern_type", "duration_category", "min_duration_minutes",
		"max_duration_minutes", "trade_count", "win_rate", "avg_profit_pct",
		"total_profit_abs", "optimal_exit_timing_minutes", "analysis_date",
	},
	OrderBy: "min_duration_minutes ASC",
	Less:    func(a, b *domain.DurationPattern) bool { return a.MinDurationMinutes < b.MinDurationMinutes },
	Values: func(r *domain.DurationPattern) []any {
		return []any{
			r.PatternType, r.DurationCategory, r.MinDurationMinutes,
			r.MaxDurationMinutes, r.TradeCount, r.WinRate, r.AvgProfitPct,
			r.TotalProfitAbs, r.OptimalExitTimingMinutes, r.AnalysisDate,
		}
	},
	Fields: func(r *domain.DurationPattern) []any {
		return []any{
			&r.PatternType, &r.DurationCategory, &r.MinDurationMinutes,
			&r.MaxDurationMinutes, &r.TradeCount, &r.WinRate, &r.AvgProfitPct,
			&r.TotalProfitAbs, &r.OptimalExitTimingMinutes, &r.AnalysisDate,
		}
	},
}

// BotHealthMetrics describes the bot_health_metrics table.
var BotHealthMetrics = Table[domain.BotHealthMetric]{
	Name: TableBotHealthMetrics,
	Columns: []string{
		"metric_name", "metric_value", "metric_unit", "health_status",
		"threshold_warning", "threshold_critical",
		"last_calculation", "analysis_date",
	},
	OrderBy: "metric_name ASC",
	Less:    func(a, b *domain.BotHealthMetric) bool { return a.MetricName < b.MetricName },
	Values: func(r *domain.BotHealthMetric) []any {
		return []any{
			r.MetricName, r.MetricValue, r.MetricUnit, string(r.HealthStatus),
			r.ThresholdWarning, r.ThresholdCritical,
			r.LastCalculation, r.AnalysisDate,
		}
	},
	Fields: func(r *domain.BotHealthMetric) []any {
		return []any{
			&r.MetricName, &r.MetricValue, &r.MetricUnit, (*string)(&r.HealthStatus),
			&r.ThresholdWarning, &r.ThresholdCritical,
			&r.LastCalculation, &r.AnalysisDate,
		}
	},
}
