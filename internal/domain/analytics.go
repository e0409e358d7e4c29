package domain

import "time"

// PerformanceRanking is one row of performance_rankings (one per pair).
type PerformanceRanking struct {
	RankingType        string  // "by_pair"
	EntityName         string  // pair
	EntityType         string  // "trading_pair"
	ProfitRatio        float64 // mean
	ProfitPct          float64 // mean
	ProfitAbs          float64 // sum
	TradeCount         int
	WinRate            float64 // fraction in [0, 1]
	AvgDurationMinutes float64
	MaxProfitPct       float64
	MinProfitPct       float64
	TotalVolume        float64 // sum of stake
	RankPosition       int     // 1 = best mean profit pct
	AnalysisDate       time.Time
}

// RiskMetric is the single overall row of risk_metrics.
// SharpeRatio and MaxDrawdownPct are proxies, not validated risk measures.
type RiskMetric struct {
	MetricType               string // "overall"
	StopLossTriggeredCount   int
	StopLossEffectivenessPct float64
	SharpeRatio              float64
	MaxDrawdownPct           float64
	AnalysisDate             time.Time
}

// StrategyPerformance is one row of strategy_performance.
type StrategyPerformance struct {
	StrategyName            string
	TotalTrades             int
	WinningTrades           int
	LosingTrades            int
	WinRate                 float64
	AvgProfitPct            float64
	TotalProfitAbs          float64
	ProfitFactor            float64 // gross win / gross loss, 0 without losses
	Expectancy              float64
	BestTradePct            float64
	WorstTradePct           float64
	ConsistencyScore        float64
	AvgTradeDurationMinutes float64
	AnalysisDate            time.Time
}

// TimingAnalysis is one row of timing_analysis.
// Hour and weekday rows leave the summary pointers nil; the overall row sets them.
type TimingAnalysis struct {
	TimeCategory          string // hour_of_day | day_of_week | overall
	TimeValue             string // "00".."23", "Sunday".."Saturday", "all"
	TradeCount            int
	WinRate               float64
	AvgProfitPct          float64
	TotalProfitAbs        float64
	BestPerformanceHour   *int
	WorstPerformanceHour  *int
	WeekendPerformancePct *float64
	WeekdayPerformancePct *float64
	DurationMinutesAvg    float64
	AnalysisDate          time.Time
}

// Timing categories
const (
	TimeCategoryHourOfDay = "hour_of_day"
	TimeCategoryDayOfWeek = "day_of_week"
	TimeCategoryOverall   = "overall"
)

// PairAnalytics is one row of pair_analytics.
type PairAnalytics struct {
	Pair                    string
	BaseCurrency            string
	QuoteCurrency           string
	TotalTrades             int
	WinningTrades           int
	LosingTrades            int
	WinRate                 float64
	AvgProfitPct            float64
	TotalProfitAbs          float64
	AvgTradeDurationMinutes float64
	PriceVolatilityPct      float64 // population stddev of profit pct
	AnalysisDate            time.Time
}

// StopLossAnalytics is one row of stop_loss_analytics (one per pair with a configured stop-loss).
type StopLossAnalytics struct {
	AnalysisType                 string // "by_pair"
	Pair                         string
	StopLossLevelPct             float64 // mean configured level
	TotalTradesWithSL            int
	SLTriggeredCount             int
	SLEffectivenessPct           float64
	AvgLossWhenTriggeredPct      *float64 // nil when nothing triggered
	AvgProfitWhenNotTriggeredPct *float64 // nil when everything triggered
	AnalysisDate                 time.Time
}

// DurationPattern is one row of duration_patterns.
type DurationPattern struct {
	PatternType              string // "duration_based"
	DurationCategory         string
	MinDurationMinutes       int
	MaxDurationMinutes       int
	TradeCount               int
	WinRate                  float64
	AvgProfitPct             float64
	TotalProfitAbs           float64
	OptimalExitTimingMinutes float64
	AnalysisDate             time.Time
}

// Duration categories
const (
	DurationScalp      = "scalp"
	DurationShortTerm  = "short_term"
	DurationDayTrade   = "day_trade"
	DurationSwingTrade = "swing_trade"
)

// BotHealthMetric is one row of bot_health_metrics.
type BotHealthMetric struct {
	MetricName        string
	MetricValue       float64
	MetricUnit        string
	HealthStatus      HealthStatus
	ThresholdWarning  *float64
	ThresholdCritical *float64
	LastCalculation   time.Time
	AnalysisDate      time.Time
}

// HealthStatus tags a bot health gauge.
type HealthStatus string

// Health statuses
const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthWarning  HealthStatus = "WARNING"
	HealthCritical HealthStatus = "CRITICAL"
)

// AnalyticsSet holds the replacement rows for all eight analytics tables
// produced by one cycle.
type AnalyticsSet struct {
	PerformanceRankings []PerformanceRanking
	RiskMetrics         []RiskMetric
	StrategyPerformance []StrategyPerformance
	TimingAnalysis      []TimingAnalysis
	PairAnalytics       []PairAnalytics
	StopLossAnalytics   []StopLossAnalytics
	DurationPatterns    []DurationPattern
	BotHealthMetrics    []BotHealthMetric
}

// RowCount returns the total number of rows across all tables.
func (s *AnalyticsSet) RowCount() int {
	if s == nil {
		return 0
	}
	return len(s.PerformanceRankings) + len(s.RiskMetrics) + len(s.StrategyPerformance) +
		len(s.TimingAnalysis) + len(s.PairAnalytics) + len(s.StopLossAnalytics) +
		len(s.DurationPatterns) + len(s.BotHealthMetrics)
}
