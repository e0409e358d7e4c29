package analytics

import (
	"fmt"
	"time"

	"trading-analytics/internal/domain"
)

// TimeValueAll is the time_value of the overall timing row.
const TimeValueAll = "all"

// DeriveTimingAnalysis buckets trades by UTC open hour and weekday, then adds one
// overall row carrying best/worst hour and the weekend vs weekday comparison.
// Trades without an open date only contribute to the overall totals.
func DeriveTimingAnalysis(trades []*domain.Trade, asOf time.Time) []domain.TimingAnalysis {
	if len(trades) == 0 {
		return nil
	}

	var byHour [24][]*domain.Trade
	var byDay [7][]*domain.Trade
	var weekend, weekday []float64
	for _, t := range trades {
		if t.OpenDate == nil {
			continue
		}
		open := t.OpenDate.UTC()
		byHour[open.Hour()] = append(byHour[open.Hour()], t)
		byDay[open.Weekday()] = append(byDay[open.Weekday()], t)
		if wd := open.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend = append(weekend, t.ProfitPct)
		} else {
			weekday = append(weekday, t.ProfitPct)
		}
	}

	var rows []domain.TimingAnalysis
	best, worst := -1, -1
	var bestMean, worstMean float64
	for hour, bucket := range byHour {
		if len(bucket) == 0 {
			continue
		}
		row := timingRow(domain.TimeCategoryHourOfDay, fmt.Sprintf("%02d", hour), bucket, asOf)
		rows = append(rows, row)

		if best < 0 || row.AvgProfitPct > bestMean {
			best, bestMean = hour, row.AvgProfitPct
		}
		if worst < 0 || row.AvgProfitPct < worstMean {
			worst, worstMean = hour, row.AvgProfitPct
		}
	}
	for day, bucket := range byDay {
		if len(bucket) == 0 {
			continue
		}
		rows = append(rows, timingRow(domain.TimeCategoryDayOfWeek, time.Weekday(day).String(), bucket, asOf))
	}

	overall := timingRow(domain.TimeCategoryOverall, TimeValueAll, trades, asOf)
	if best >= 0 {
		overall.BestPerformanceHour = intPtr(best)
		overall.WorstPerformanceHour = intPtr(worst)
	}
	if len(weekend) > 0 {
		overall.WeekendPerformancePct = floatPtr(computeMean(weekend))
	}
	if len(weekday) > 0 {
		overall.WeekdayPerformancePct = floatPtr(computeMean(weekday))
	}
	return append(rows, overall)
}

func timingRow(category, value string, trades []*domain.Trade, asOf time.Time) domain.TimingAnalysis {
	s := summarize(trades)
	return domain.TimingAnalysis{
		TimeCategory:       category,
		TimeValue:          value,
		TradeCount:         s.count,
		WinRate:            s.winRate(),
		AvgProfitPct:       s.meanPct(),
		TotalProfitAbs:     s.totalAbs(),
		DurationMinutesAvg: s.avgDuration(),
		AnalysisDate:       asOf,
	}
}
