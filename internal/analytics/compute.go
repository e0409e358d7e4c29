package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"trading-analytics/internal/domain"
)

// tradeStats accumulates the per-group figures most derivations share.
// Money columns are summed in decimal so totals do not drift with group size.
type tradeStats struct {
	count int
	wins  int

	pcts     []float64
	ratioSum float64
	minPct   float64
	maxPct   float64

	profitAbs decimal.Decimal
	stake     decimal.Decimal

	durationSum   float64
	durationCount int
}

// summarize computes tradeStats over trades.
func summarize(trades []*domain.Trade) tradeStats {
	s := tradeStats{
		pcts:      make([]float64, 0, len(trades)),
		profitAbs: decimal.Zero,
		stake:     decimal.Zero,
	}
	for i, t := range trades {
		s.count++
		if t.IsWin() {
			s.wins++
		}
		s.pcts = append(s.pcts, t.ProfitPct)
		s.ratioSum += t.ProfitRatio
		if i == 0 || t.ProfitPct < s.minPct {
			s.minPct = t.ProfitPct
		}
		if i == 0 || t.ProfitPct > s.maxPct {
			s.maxPct = t.ProfitPct
		}
		s.profitAbs = s.profitAbs.Add(decimal.NewFromFloat(t.ProfitAbs))
		s.stake = s.stake.Add(decimal.NewFromFloat(t.StakeAmount))
		if t.TradeDuration != nil {
			s.durationSum += float64(*t.TradeDuration)
			s.durationCount++
		}
	}
	return s
}

func (s tradeStats) losses() int         { return s.count - s.wins }
func (s tradeStats) winRate() float64    { return computeWinRate(s.wins, s.count) }
func (s tradeStats) meanPct() float64    { return computeMean(s.pcts) }
func (s tradeStats) totalAbs() float64   { return s.profitAbs.InexactFloat64() }
func (s tradeStats) totalStake() float64 { return s.stake.InexactFloat64() }

func (s tradeStats) meanRatio() float64 {
	if s.count == 0 {
		return 0
	}
	return s.ratioSum / float64(s.count)
}

// avgDuration ignores trades without a recorded duration.
func (s tradeStats) avgDuration() float64 {
	if s.durationCount == 0 {
		return 0
	}
	return s.durationSum / float64(s.durationCount)
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computePopStddev calculates population standard deviation as sqrt(E[x²] - E[x]²).
// Returns 0 for fewer than 2 samples.
func computePopStddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := computeMean(values)
	sumSq := 0.0
	for _, v := range values {
		sumSq += v * v
	}
	variance := sumSq/float64(n) - mean*mean
	if variance <= 0 {
		// Rounding can push an all-equal sample slightly below zero.
		return 0
	}
	return math.Sqrt(variance)
}

// computeProfitFactor calculates gross profit / gross loss on profit_abs.
// Returns 0 when there is no losing volume.
func computeProfitFactor(trades []*domain.Trade) float64 {
	gross := decimal.Zero
	loss := decimal.Zero
	for _, t := range trades {
		v := decimal.NewFromFloat(t.ProfitAbs)
		switch {
		case v.IsPositive():
			gross = gross.Add(v)
		case v.IsNegative():
			loss = loss.Add(v.Abs())
		}
	}
	if loss.IsZero() {
		return 0
	}
	return gross.Div(loss).InexactFloat64()
}

// computeConsistency returns 1 - stddev / mean(|pct|), or 0 when mean(|pct|) is 0.
func computeConsistency(pcts []float64) float64 {
	absSum := 0.0
	for _, p := range pcts {
		absSum += math.Abs(p)
	}
	if len(pcts) == 0 || absSum == 0 {
		return 0
	}
	return 1 - computePopStddev(pcts)/(absSum/float64(len(pcts)))
}

// computeSharpeProxy returns mean / stddev over profit pct.
// Returns 0 unless mean != 0, n > 1 and stddev != 0.
func computeSharpeProxy(pcts []float64) float64 {
	mean := computeMean(pcts)
	if mean == 0 || len(pcts) < 2 {
		return 0
	}
	stddev := computePopStddev(pcts)
	if stddev == 0 {
		return 0
	}
	return mean / stddev
}

// computeDrawdownProxy returns the lowest running total of profit_abs.
// Trades without a close date are skipped. Trades sharing a close date are one
// step: the running total is only observed after all of them are added.
func computeDrawdownProxy(trades []*domain.Trade) float64 {
	closed := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.CloseDate != nil {
			closed = append(closed, t)
		}
	}
	if len(closed) == 0 {
		return 0
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].CloseDate.Before(*closed[j].CloseDate)
	})

	var running, lowest decimal.Decimal
	for i, step := 0, 0; i < len(closed); step++ {
		at := *closed[i].CloseDate
		for ; i < len(closed) && closed[i].CloseDate.Equal(at); i++ {
			running = running.Add(decimal.NewFromFloat(closed[i].ProfitAbs))
		}
		if step == 0 || running.LessThan(lowest) {
			lowest = running
		}
	}
	return lowest.InexactFloat64()
}

// group is one GROUP BY bucket.
type group struct {
	key    string
	trades []*domain.Trade
}

// groupBy buckets trades by key, returning groups sorted by key ASC.
// Trades keep their input order inside a group.
func groupBy(trades []*domain.Trade, key func(*domain.Trade) string) []group {
	index := make(map[string]int)
	var groups []group
	for _, t := range trades {
		k := key(t)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].trades = append(groups[i].trades, t)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].key < groups[j].key
	})
	return groups
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
