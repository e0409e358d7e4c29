package analytics

import (
	"time"

	"trading-analytics/internal/domain"
)

// PatternTypeDurationBased labels duration_patterns rows.
const PatternTypeDurationBased = "duration_based"

// Duration bucket upper bounds in minutes, inclusive.
const (
	ScalpMaxMinutes     = 60
	ShortTermMaxMinutes = 480
	DayTradeMaxMinutes  = 1440
)

// DurationCategory buckets a trade duration in minutes.
func DurationCategory(minutes int) string {
	switch {
	case minutes <= ScalpMaxMinutes:
		return domain.DurationScalp
	case minutes <= ShortTermMaxMinutes:
		return domain.DurationShortTerm
	case minutes <= DayTradeMaxMinutes:
		return domain.DurationDayTrade
	default:
		return domain.DurationSwingTrade
	}
}

// durationOrder lists buckets shortest first.
var durationOrder = []string{
	domain.DurationScalp,
	domain.DurationShortTerm,
	domain.DurationDayTrade,
	domain.DurationSwingTrade,
}

// DeriveDurationPatterns computes one row per non-empty duration bucket.
// Trades without a duration are skipped.
func DeriveDurationPatterns(trades []*domain.Trade, asOf time.Time) []domain.DurationPattern {
	buckets := make(map[string][]*domain.Trade)
	for _, t := range trades {
		if t.TradeDuration == nil {
			continue
		}
		c := DurationCategory(*t.TradeDuration)
		buckets[c] = append(buckets[c], t)
	}

	var rows []domain.DurationPattern
	for _, category := range durationOrder {
		bucket := buckets[category]
		if len(bucket) == 0 {
			continue
		}

		s := summarize(bucket)
		minD, maxD := *bucket[0].TradeDuration, *bucket[0].TradeDuration
		for _, t := range bucket[1:] {
			if d := *t.TradeDuration; d < minD {
				minD = d
			} else if d > maxD {
				maxD = d
			}
		}

		rows = append(rows, domain.DurationPattern{
			PatternType:              PatternTypeDurationBased,
			DurationCategory:         category,
			MinDurationMinutes:       minD,
			MaxDurationMinutes:       maxD,
			TradeCount:               s.count,
			WinRate:                  s.winRate(),
			AvgProfitPct:             s.meanPct(),
			TotalProfitAbs:           s.totalAbs(),
			OptimalExitTimingMinutes: s.avgDuration(),
			AnalysisDate:             asOf,
		})
	}
	return rows
}
