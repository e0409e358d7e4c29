package memory

import (
	"context"
	"sync"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// AnalyticsStore is an in-memory implementation of storage.AnalyticsStore.
// Writes are staged on a private copy and swapped in on commit, so a failed
// transaction leaves the visible tables untouched.
type AnalyticsStore struct {
	mu        sync.RWMutex
	set       domain.AnalyticsSet
	snapshots *SnapshotStore
	txCount   int
}

// NewAnalyticsStore creates an analytics store that completes snapshots in snapshots.
func NewAnalyticsStore(snapshots *SnapshotStore) *AnalyticsStore {
	return &AnalyticsStore{snapshots: snapshots}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Load returns a copy of all eight tables, each in its table order.
func (s *AnalyticsStore) Load(_ context.Context) (*domain.AnalyticsSet, error) {
	s.mu.RLock()
	out := cloneSet(&s.set)
	s.mu.RUnlock()

	storage.PerformanceRankings.Sort(out.PerformanceRankings)
	storage.RiskMetrics.Sort(out.RiskMetrics)
	storage.StrategyPerformance.Sort(out.StrategyPerformance)
	storage.TimingAnalysis.Sort(out.TimingAnalysis)
	storage.PairAnalytics.Sort(out.PairAnalytics)
	storage.StopLossAnalytics.Sort(out.StopLossAnalytics)
	storage.DurationPatterns.Sort(out.DurationPatterns)
	storage.BotHealthMetrics.Sort(out.BotHealthMetrics)
	return out, nil
}

// TxCount returns how many write transactions have been opened.
func (s *AnalyticsStore) TxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txCount
}

// InTx runs fn against a staged copy and publishes it only if fn succeeds.
func (s *AnalyticsStore) InTx(ctx context.Context, fn func(tx storage.AnalyticsTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txCount++
	tx := &analyticsTx{store: s, staged: cloneSet(&s.set)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if tx.completed {
		s.snapshots.mu.Lock()
		err := s.snapshots.completeLocked(tx.snapshotID, tx.lastTradeID)
		s.snapshots.mu.Unlock()
		if err != nil {
			return err
		}
	}

	s.set = *tx.staged
	return nil
}

type analyticsTx struct {
	store  *AnalyticsStore
	staged *domain.AnalyticsSet

	completed   bool
	snapshotID  int64
	lastTradeID int64
}

func (tx *analyticsTx) ReplacePerformanceRankings(ctx context.Context, rows []domain.PerformanceRanking) error {
	tx.staged.PerformanceRankings = cloneRows(rows)
	return ctx.Err()
}

func (tx *analyticsTx) ReplaceRiskMetrics(ctx context.Context, rows []domain.RiskMetric) error {
	tx.staged.RiskMetrics = cloneRows(rows)
	return ctx.Err()
}

func (tx *analyticsTx) ReplaceStrategyPerformance(ctx context.Context, rows []domain.StrategyPerformance) error {
	tx.staged.StrategyPerformance = cloneRows(rows)
	return ctx.Err()
}

func (tx *analyticsTx) ReplaceTimingAnalysis(ctx context.Context, rows []domain.TimingAnalysis) error {
	tx.staged.TimingAnalysis = cloneTiming(rows)
	return ctx.Err()
}

func (tx *analyticsTx) ReplacePairAnalytics(ctx context.Context, rows []domain.PairAnalytics) error {
	tx.staged.PairAnalytics = cloneRows(rows)
	return ctx.Err()
}

func (tx *analyticsTx) ReplaceStopLossAnalytics(ctx context.Context, rows []domain.StopLossAnalytics) error {
	tx.staged.StopLossAnalytics = cloneStopLoss(rows)
	return ctx.Err()
}

func (tx *analyticsTx) ReplaceDurationPatterns(ctx context.Context, rows []domain.DurationPattern) error {
	tx.staged.DurationPatterns = cloneRows(rows)
	return ctx.Err()
}

func (tx *analyticsTx) ReplaceBotHealthMetrics(ctx context.Context, rows []domain.BotHealthMetric) error {
	tx.staged.BotHealthMetrics = cloneHealth(rows)
	return ctx.Err()
}

// CompleteSnapshot validates the snapshot now and applies the transition on commit.
func (tx *analyticsTx) CompleteSnapshot(_ context.Context, id, lastTradeID int64) error {
	tx.store.snapshots.mu.RLock()
	err := tx.store.snapshots.checkProcessingLocked(id)
	tx.store.snapshots.mu.RUnlock()
	if err != nil {
		return err
	}

	tx.completed = true
	tx.snapshotID = id
	tx.lastTradeID = lastTradeID
	return nil
}

func cloneSet(s *domain.AnalyticsSet) *domain.AnalyticsSet {
	return &domain.AnalyticsSet{
		PerformanceRankings: cloneRows(s.PerformanceRankings),
		RiskMetrics:         cloneRows(s.RiskMetrics),
		StrategyPerformance: cloneRows(s.StrategyPerformance),
		TimingAnalysis:      cloneTiming(s.TimingAnalysis),
		PairAnalytics:       cloneRows(s.PairAnalytics),
		StopLossAnalytics:   cloneStopLoss(s.StopLossAnalytics),
		DurationPatterns:    cloneRows(s.DurationPatterns),
		BotHealthMetrics:    cloneHealth(s.BotHealthMetrics),
	}
}

// cloneRows copies rows that hold no pointers.
func cloneRows[T any](rows []T) []T {
	if len(rows) == 0 {
		return nil
	}
	return append([]T(nil), rows...)
}

func cloneTiming(rows []domain.TimingAnalysis) []domain.TimingAnalysis {
	out := cloneRows(rows)
	for i := range out {
		out[i].BestPerformanceHour = clonePtr(out[i].BestPerformanceHour)
		out[i].WorstPerformanceHour = clonePtr(out[i].WorstPerformanceHour)
		out[i].WeekendPerformancePct = clonePtr(out[i].WeekendPerformancePct)
		out[i].WeekdayPerformancePct = clonePtr(out[i].WeekdayPerformancePct)
	}
	return out
}

func cloneStopLoss(rows []domain.StopLossAnalytics) []domain.StopLossAnalytics {
	out := cloneRows(rows)
	for i := range out {
		out[i].AvgLossWhenTriggeredPct = clonePtr(out[i].AvgLossWhenTriggeredPct)
		out[i].AvgProfitWhenNotTriggeredPct = clonePtr(out[i].AvgProfitWhenNotTriggeredPct)
	}
	return out
}

func cloneHealth(rows []domain.BotHealthMetric) []domain.BotHealthMetric {
	out := cloneRows(rows)
	for i := range out {
		out[i].ThresholdWarning = clonePtr(out[i].ThresholdWarning)
		out[i].ThresholdCritical = clonePtr(out[i].ThresholdCritical)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
