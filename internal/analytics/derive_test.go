package analytics

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

var asOf = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTrade(id int64, pair string, pct float64) *domain.Trade {
	base, quote, _ := strings.Cut(pair, "/")
	return &domain.Trade{
		TradeID:       id,
		Pair:          pair,
		BaseCurrency:  base,
		QuoteCurrency: quote,
		Strategy:      "SampleStrategy",
		StakeAmount:   100,
		ProfitRatio:   pct / 100,
		ProfitPct:     pct,
		ProfitAbs:     pct, // stake 100 -> abs equals pct
		ExitReason:    domain.ExitReasonROI,
	}
}

func withDuration(t *domain.Trade, minutes int) *domain.Trade {
	t.TradeDuration = &minutes
	return t
}

func withOpen(t *domain.Trade, open time.Time) *domain.Trade {
	t.OpenDate = &open
	return t
}

func TestCompute_BTCScenario(t *testing.T) {
	trades := []*domain.Trade{
		newTrade(1, "BTC/USD", 5),
		newTrade(2, "BTC/USD", -3),
		newTrade(3, "BTC/USD", 2),
	}

	set, err := Compute(trades, asOf)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(set.PairAnalytics) != 1 {
		t.Fatalf("expected 1 pair row, got %d", len(set.PairAnalytics))
	}
	pa := set.PairAnalytics[0]
	if pa.TotalTrades != 3 || pa.WinningTrades != 2 || pa.LosingTrades != 1 {
		t.Errorf("unexpected counts: %+v", pa)
	}
	if !approxEqual(pa.WinRate, 2.0/3.0, epsilon) {
		t.Errorf("expected win rate ≈0.667, got %f", pa.WinRate)
	}
	if !approxEqual(pa.AvgProfitPct, 4.0/3.0, epsilon) {
		t.Errorf("expected avg profit ≈1.333, got %f", pa.AvgProfitPct)
	}
	if !approxEqual(pa.TotalProfitAbs, 4, epsilon) {
		t.Errorf("expected total profit abs 4, got %f", pa.TotalProfitAbs)
	}
	if !approxEqual(pa.PriceVolatilityPct, 3.30, 0.01) {
		t.Errorf("expected volatility ≈3.30, got %f", pa.PriceVolatilityPct)
	}
	if pa.BaseCurrency != "BTC" || pa.QuoteCurrency != "USD" {
		t.Errorf("unexpected currencies: %s/%s", pa.BaseCurrency, pa.QuoteCurrency)
	}
	if !pa.AnalysisDate.Equal(asOf) {
		t.Errorf("expected analysis date %v, got %v", asOf, pa.AnalysisDate)
	}

	if len(set.PerformanceRankings) != 1 {
		t.Fatalf("expected 1 ranking row, got %d", len(set.PerformanceRankings))
	}
	pr := set.PerformanceRankings[0]
	if pr.RankPosition != 1 || pr.TradeCount != 3 || pr.TotalVolume != 300 {
		t.Errorf("unexpected ranking row: %+v", pr)
	}
	if pr.MaxProfitPct != 5 || pr.MinProfitPct != -3 {
		t.Errorf("unexpected max/min: %f/%f", pr.MaxProfitPct, pr.MinProfitPct)
	}
}

func TestCompute_EmptyInputProducesNoRows(t *testing.T) {
	set, err := Compute(nil, asOf)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if set.RowCount() != 0 {
		t.Errorf("expected no rows, got %d", set.RowCount())
	}
}

func TestCompute_IgnoresOpenTrades(t *testing.T) {
	open := newTrade(2, "ETH/USD", 50)
	open.IsOpen = true

	set, err := Compute([]*domain.Trade{newTrade(1, "BTC/USD", 1), open}, asOf)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(set.PairAnalytics) != 1 || set.PairAnalytics[0].Pair != "BTC/USD" {
		t.Errorf("expected only BTC/USD, got %+v", set.PairAnalytics)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	trades := []*domain.Trade{
		withDuration(newTrade(1, "BTC/USD", 5), 30),
		withDuration(newTrade(2, "ETH/USD", -3), 600),
		withOpen(newTrade(3, "SOL/USD", 2), asOf.Add(-5*time.Hour)),
	}

	first, err := Compute(trades, asOf)
	if err != nil {
		t.Fatalf("first Compute failed: %v", err)
	}
	second, err := Compute(trades, asOf)
	if err != nil {
		t.Fatalf("second Compute failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results for identical input")
	}
}

func TestCompute_RejectsNonFiniteValues(t *testing.T) {
	bad := newTrade(7, "BTC/USD", 1)
	bad.ProfitAbs = math.NaN()

	_, err := Compute([]*domain.Trade{newTrade(1, "BTC/USD", 1), bad}, asOf)
	if err == nil {
		t.Fatal("expected error for NaN profit_abs")
	}
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "trade 7") {
		t.Errorf("expected trade id in error, got %q", err.Error())
	}
}

func TestDurationCategory_Boundaries(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{30, domain.DurationScalp},
		{200, domain.DurationShortTerm},
		{1000, domain.DurationDayTrade},
		{2000, domain.DurationSwingTrade},
		{60, domain.DurationScalp},
		{61, domain.DurationShortTerm},
		{480, domain.DurationShortTerm},
		{1440, domain.DurationDayTrade},
		{1441, domain.DurationSwingTrade},
	}
	for _, tc := range cases {
		if got := DurationCategory(tc.minutes); got != tc.want {
			t.Errorf("DurationCategory(%d) = %s, want %s", tc.minutes, got, tc.want)
		}
	}
}

func TestDeriveDurationPatterns(t *testing.T) {
	trades := []*domain.Trade{
		withDuration(newTrade(1, "BTC/USD", 2), 30),
		withDuration(newTrade(2, "BTC/USD", -1), 50),
		withDuration(newTrade(3, "BTC/USD", 4), 2000),
		newTrade(4, "BTC/USD", 9), // no duration, skipped
	}

	rows := DeriveDurationPatterns(trades, asOf)
	if len(rows) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(rows))
	}

	scalp := rows[0]
	if scalp.DurationCategory != domain.DurationScalp {
		t.Fatalf("expected scalp first, got %s", scalp.DurationCategory)
	}
	if scalp.TradeCount != 2 || scalp.MinDurationMinutes != 30 || scalp.MaxDurationMinutes != 50 {
		t.Errorf("unexpected scalp row: %+v", scalp)
	}
	if scalp.OptimalExitTimingMinutes != 40 {
		t.Errorf("expected optimal exit 40, got %f", scalp.OptimalExitTimingMinutes)
	}
	if scalp.WinRate != 0.5 {
		t.Errorf("expected win rate 0.5, got %f", scalp.WinRate)
	}
	if rows[1].DurationCategory != domain.DurationSwingTrade || rows[1].TradeCount != 1 {
		t.Errorf("unexpected swing row: %+v", rows[1])
	}
}

func TestHealthStatusFor_Boundaries(t *testing.T) {
	cases := []struct {
		winRate, avg float64
		want         domain.HealthStatus
	}{
		{0.70, 0.5, domain.HealthHealthy},
		{0.69, 0.5, domain.HealthWarning},
		{0.69, -0.1, domain.HealthCritical},
		{0.70, 0.49, domain.HealthWarning},
		{0.50, 0, domain.HealthWarning},
		{0.49, 3, domain.HealthCritical},
	}
	for _, tc := range cases {
		if got := HealthStatusFor(tc.winRate, tc.avg); got != tc.want {
			t.Errorf("HealthStatusFor(%v, %v) = %s, want %s", tc.winRate, tc.avg, got, tc.want)
		}
	}
}

func TestWorstLossStatus(t *testing.T) {
	if got := WorstLossStatus(-19.99); got != domain.HealthHealthy {
		t.Errorf("expected HEALTHY above -20, got %s", got)
	}
	if got := WorstLossStatus(-20); got != domain.HealthWarning {
		t.Errorf("expected WARNING at -20, got %s", got)
	}
}

func TestDeriveBotHealthMetrics(t *testing.T) {
	trades := []*domain.Trade{
		newTrade(1, "BTC/USD", 5),
		newTrade(2, "BTC/USD", -25),
		newTrade(3, "BTC/USD", 2),
	}

	rows := DeriveBotHealthMetrics(trades, asOf)
	if len(rows) != 6 {
		t.Fatalf("expected 6 gauges, got %d", len(rows))
	}

	byName := make(map[string]domain.BotHealthMetric)
	for _, r := range rows {
		byName[r.MetricName] = r
	}

	// win rate 2/3, avg -6 -> CRITICAL
	wr := byName[MetricOverallWinRate]
	if !approxEqual(wr.MetricValue, 200.0/3.0, epsilon) || wr.MetricUnit != "%" {
		t.Errorf("unexpected win rate gauge: %+v", wr)
	}
	if wr.HealthStatus != domain.HealthCritical {
		t.Errorf("expected CRITICAL, got %s", wr.HealthStatus)
	}
	if wr.ThresholdWarning == nil || *wr.ThresholdWarning != 60 || *wr.ThresholdCritical != 40 {
		t.Errorf("unexpected win rate thresholds")
	}

	if tt := byName[MetricTotalTrades]; tt.MetricValue != 3 || tt.HealthStatus != domain.HealthHealthy || tt.ThresholdWarning != nil {
		t.Errorf("unexpected total trades gauge: %+v", tt)
	}
	if wl := byName[MetricWorstLoss]; wl.MetricValue != -25 || wl.HealthStatus != domain.HealthWarning {
		t.Errorf("unexpected worst loss gauge: %+v", wl)
	}
	if bw := byName[MetricBestWin]; bw.MetricValue != 5 || bw.HealthStatus != domain.HealthHealthy {
		t.Errorf("unexpected best win gauge: %+v", bw)
	}
	if tp := byName[MetricTotalProfit]; tp.MetricValue != -18 || tp.MetricUnit != "abs" {
		t.Errorf("unexpected total profit gauge: %+v", tp)
	}
}

func TestDerivePerformanceRankings_StableOnTies(t *testing.T) {
	trades := []*domain.Trade{
		newTrade(1, "XRP/USD", 1),
		newTrade(2, "ADA/USD", 3),
		newTrade(3, "ETH/USD", 1),
		newTrade(4, "BTC/USD", 1),
	}

	rows := DerivePerformanceRankings(trades, asOf)
	want := []string{"ADA/USD", "BTC/USD", "ETH/USD", "XRP/USD"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, r := range rows {
		if r.EntityName != want[i] {
			t.Errorf("position %d: expected %s, got %s", i+1, want[i], r.EntityName)
		}
		if r.RankPosition != i+1 {
			t.Errorf("expected rank %d, got %d", i+1, r.RankPosition)
		}
		if r.RankingType != RankingTypeByPair || r.EntityType != EntityTypeTradingPair {
			t.Errorf("unexpected labels: %s/%s", r.RankingType, r.EntityType)
		}
	}
}

func TestDeriveRiskMetrics(t *testing.T) {
	sl := func(id int64, pct float64) *domain.Trade {
		tr := newTrade(id, "BTC/USD", pct)
		tr.ExitReason = domain.ExitReasonStopLoss
		return tr
	}
	trades := []*domain.Trade{
		sl(1, -6),
		newTrade(2, "BTC/USD", -2),
		newTrade(3, "BTC/USD", 10),
		sl(4, 1), // stop-loss exit that still closed in profit
	}

	rows := DeriveRiskMetrics(trades, asOf)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.MetricType != MetricTypeOverall || r.StopLossTriggeredCount != 2 {
		t.Errorf("unexpected row: %+v", r)
	}
	// losing volume 6 + 2, of which 6 from stop-loss
	if !approxEqual(r.StopLossEffectivenessPct, 75, epsilon) {
		t.Errorf("expected 75%%, got %f", r.StopLossEffectivenessPct)
	}
	if r.SharpeRatio == 0 {
		t.Errorf("expected non-zero sharpe proxy")
	}
}

func TestDeriveRiskMetrics_NoStopLoss(t *testing.T) {
	rows := DeriveRiskMetrics([]*domain.Trade{newTrade(1, "BTC/USD", -4)}, asOf)
	if rows[0].StopLossEffectivenessPct != 0 || rows[0].StopLossTriggeredCount != 0 {
		t.Errorf("expected zero stop-loss figures, got %+v", rows[0])
	}
	if rows[0].SharpeRatio != 0 {
		t.Errorf("expected 0 sharpe for a single trade, got %f", rows[0].SharpeRatio)
	}
}

func TestDeriveStopLossAnalytics(t *testing.T) {
	level := -5.0
	mk := func(id int64, pair string, pct float64, triggered bool) *domain.Trade {
		tr := newTrade(id, pair, pct)
		tr.StopLossPct = &level
		if triggered {
			tr.ExitReason = domain.ExitReasonStopLoss
		}
		return tr
	}
	trades := []*domain.Trade{
		mk(1, "BTC/USD", -5, true),
		mk(2, "BTC/USD", -12, true),
		mk(3, "BTC/USD", 4, false),
		mk(4, "ETH/USD", 2, false),
		newTrade(5, "SOL/USD", -8), // no stop-loss configured
	}

	rows := DeriveStopLossAnalytics(trades, asOf)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	btc := rows[0]
	if btc.Pair != "BTC/USD" || btc.TotalTradesWithSL != 3 || btc.SLTriggeredCount != 2 {
		t.Errorf("unexpected BTC row: %+v", btc)
	}
	if btc.SLEffectivenessPct != 50 {
		t.Errorf("expected 50%% effectiveness, got %f", btc.SLEffectivenessPct)
	}
	if btc.StopLossLevelPct != -5 {
		t.Errorf("expected level -5, got %f", btc.StopLossLevelPct)
	}
	if btc.AvgLossWhenTriggeredPct == nil || *btc.AvgLossWhenTriggeredPct != -8.5 {
		t.Errorf("expected avg triggered loss -8.5")
	}
	if btc.AvgProfitWhenNotTriggeredPct == nil || *btc.AvgProfitWhenNotTriggeredPct != 4 {
		t.Errorf("expected avg not-triggered profit 4")
	}

	eth := rows[1]
	if eth.SLTriggeredCount != 0 || eth.SLEffectivenessPct != 0 || eth.AvgLossWhenTriggeredPct != nil {
		t.Errorf("expected zero effectiveness without triggers: %+v", eth)
	}
}

func TestDeriveStrategyPerformance(t *testing.T) {
	a := newTrade(1, "BTC/USD", 4)
	b := newTrade(2, "BTC/USD", -2)
	c := newTrade(3, "BTC/USD", 1)
	c.Strategy = "Breakout"

	rows := DeriveStrategyPerformance([]*domain.Trade{a, b, c}, asOf)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].StrategyName != "Breakout" {
		t.Errorf("expected strategies sorted by name, got %s first", rows[0].StrategyName)
	}

	s := rows[1]
	if s.TotalTrades != 2 || s.WinningTrades != 1 || s.LosingTrades != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.ProfitFactor != 2 {
		t.Errorf("expected profit factor 2, got %f", s.ProfitFactor)
	}
	if s.Expectancy != 0.5 { // mean 1 * win rate 0.5
		t.Errorf("expected expectancy 0.5, got %f", s.Expectancy)
	}
	if s.BestTradePct != 4 || s.WorstTradePct != -2 {
		t.Errorf("unexpected best/worst: %f/%f", s.BestTradePct, s.WorstTradePct)
	}
	// stddev 3, mean |pct| 3 -> 0
	if !approxEqual(s.ConsistencyScore, 0, epsilon) {
		t.Errorf("expected consistency 0, got %f", s.ConsistencyScore)
	}

	breakout := rows[0]
	if breakout.ProfitFactor != 0 {
		t.Errorf("expected profit factor 0 without losses, got %f", breakout.ProfitFactor)
	}
}

func TestDeriveTimingAnalysis(t *testing.T) {
	// 2024-03-02 is a Saturday, 2024-03-04 a Monday.
	sat9 := time.Date(2024, 3, 2, 9, 15, 0, 0, time.UTC)
	mon9 := time.Date(2024, 3, 4, 9, 45, 0, 0, time.UTC)
	mon14 := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)

	trades := []*domain.Trade{
		withOpen(newTrade(1, "BTC/USD", 6), sat9),
		withOpen(newTrade(2, "BTC/USD", -2), mon9),
		withOpen(newTrade(3, "BTC/USD", -4), mon14),
		newTrade(4, "BTC/USD", 10), // no open date
	}

	rows := DeriveTimingAnalysis(trades, asOf)

	var hours, days []domain.TimingAnalysis
	var overall *domain.TimingAnalysis
	for i := range rows {
		switch rows[i].TimeCategory {
		case domain.TimeCategoryHourOfDay:
			hours = append(hours, rows[i])
		case domain.TimeCategoryDayOfWeek:
			days = append(days, rows[i])
		case domain.TimeCategoryOverall:
			overall = &rows[i]
		}
	}

	if len(hours) != 2 || hours[0].TimeValue != "09" || hours[1].TimeValue != "14" {
		t.Fatalf("unexpected hour rows: %+v", hours)
	}
	if hours[0].TradeCount != 2 || hours[0].AvgProfitPct != 2 {
		t.Errorf("unexpected 09 row: %+v", hours[0])
	}
	if len(days) != 2 || days[0].TimeValue != "Monday" || days[1].TimeValue != "Saturday" {
		t.Fatalf("unexpected day rows: %+v", days)
	}

	if overall == nil {
		t.Fatal("expected overall row")
	}
	if overall.TradeCount != 4 || overall.TimeValue != TimeValueAll {
		t.Errorf("unexpected overall row: %+v", overall)
	}
	if overall.BestPerformanceHour == nil || *overall.BestPerformanceHour != 9 {
		t.Errorf("expected best hour 9")
	}
	if overall.WorstPerformanceHour == nil || *overall.WorstPerformanceHour != 14 {
		t.Errorf("expected worst hour 14")
	}
	if overall.WeekendPerformancePct == nil || *overall.WeekendPerformancePct != 6 {
		t.Errorf("expected weekend 6")
	}
	if overall.WeekdayPerformancePct == nil || *overall.WeekdayPerformancePct != -3 {
		t.Errorf("expected weekday -3")
	}
}

func TestDeriveTimingAnalysis_NoOpenDates(t *testing.T) {
	rows := DeriveTimingAnalysis([]*domain.Trade{newTrade(1, "BTC/USD", 1)}, asOf)
	if len(rows) != 1 || rows[0].TimeCategory != domain.TimeCategoryOverall {
		t.Fatalf("expected only the overall row, got %+v", rows)
	}
	if rows[0].BestPerformanceHour != nil || rows[0].WeekendPerformancePct != nil {
		t.Errorf("expected nil summary fields without open dates")
	}
}
