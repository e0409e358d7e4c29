// Package engine runs analytics cycles: read the checkpoint, detect new closed
// trades, recompute all eight analytics tables over the full history and commit
// them together with the snapshot that advances the checkpoint.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trading-analytics/internal/analytics"
	"trading-analytics/internal/domain"
	"trading-analytics/internal/observability"
	"trading-analytics/internal/storage"
)

// ComputeFunc derives the analytics tables from the closed-trade history.
type ComputeFunc func(trades []*domain.Trade, asOf time.Time) (*domain.AnalyticsSet, error)

// Exporter receives the analytics of every completed cycle after commit.
type Exporter interface {
	Export(ctx context.Context, snapshotID int64, set *domain.AnalyticsSet) error
}

// Outcome classifies a cycle.
type Outcome string

// Cycle outcomes
const (
	OutcomeNoop      Outcome = "noop"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Engine coordinates analytics cycles. It is the single writer of the analytics tables.
type Engine struct {
	trades    storage.TradeStore
	snapshots storage.SnapshotStore
	analytics storage.AnalyticsStore

	mode     DetectMode
	exporter Exporter
	compute  ComputeFunc
	now      func() time.Time
	newRunID func() string
	log      zerolog.Logger
	metrics  *observability.Metrics

	// cycleMu serializes RunCycle; mu guards lastTradeID.
	cycleMu     sync.Mutex
	mu          sync.Mutex
	lastTradeID int64
}

// Options for creating Engine.
type Options struct {
	// Required stores
	Trades    storage.TradeStore
	Snapshots storage.SnapshotStore
	Analytics storage.AnalyticsStore

	DetectMode DetectMode
	Exporter   Exporter // optional, nil disables export
	Logger     zerolog.Logger
	Metrics    *observability.Metrics // defaults to observability.DefaultMetrics

	// Test hooks
	Compute  ComputeFunc      // defaults to analytics.Compute
	Now      func() time.Time // defaults to time.Now
	NewRunID func() string    // defaults to a random UUID
}

// New creates a new Engine.
func New(opts Options) *Engine {
	e := &Engine{
		trades:    opts.Trades,
		snapshots: opts.Snapshots,
		analytics: opts.Analytics,
		mode:      opts.DetectMode,
		exporter:  opts.Exporter,
		compute:   opts.Compute,
		now:       opts.Now,
		newRunID:  opts.NewRunID,
		log:       opts.Logger.With().Str("component", "engine").Logger(),
		metrics:   opts.Metrics,
	}
	if e.mode == "" {
		e.mode = DetectCount
	}
	if e.compute == nil {
		e.compute = analytics.Compute
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newRunID == nil {
		e.newRunID = func() string { return uuid.NewString() }
	}
	if e.metrics == nil {
		e.metrics = observability.DefaultMetrics
	}
	return e
}

// CycleResult describes one RunCycle call.
type CycleResult struct {
	RunID          string
	Outcome        Outcome
	SnapshotID     int64 // 0 for no-op cycles
	Watermark      int64 // checkpoint read at the start of the cycle
	NewTrades      int64 // closed trades past the watermark
	LastTradeID    int64 // checkpoint after the cycle
	TradesAnalyzed int   // size of the full history the tables were derived from
	RowsWritten    int
	Duration       time.Duration
}

// RunCycle runs one analytics cycle. Concurrent calls are serialized.
//
// A failed cycle leaves the analytics tables and the checkpoint unchanged, marks its
// snapshot failed and returns the error together with a result whose Outcome is
// OutcomeFailed.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	start := e.now()
	result := &CycleResult{RunID: e.newRunID()}
	log := e.log.With().Str("run_id", result.RunID).Logger()

	err := e.runCycle(ctx, log, result)
	result.Duration = e.now().Sub(start)

	switch {
	case err != nil:
		result.Outcome = OutcomeFailed
		result.LastTradeID = e.LastTradeID()
		log.Error().Err(err).Int64("snapshot_id", result.SnapshotID).Msg("cycle failed")
	case result.Outcome == OutcomeNoop:
		log.Debug().Int64("watermark", result.Watermark).Msg("no new closed trades")
	default:
		log.Info().
			Int64("snapshot_id", result.SnapshotID).
			Int64("new_trades", result.NewTrades).
			Int64("last_trade_id", result.LastTradeID).
			Int("rows", result.RowsWritten).
			Dur("duration", result.Duration).
			Msg("cycle completed")
	}
	e.metrics.RecordCycle(string(result.Outcome), result.Duration.Seconds())
	return result, err
}

func (e *Engine) runCycle(ctx context.Context, log zerolog.Logger, result *CycleResult) error {
	watermark := e.readWatermark(ctx)
	result.Watermark = watermark

	d, err := detect(ctx, e.trades, e.mode, watermark)
	if err != nil {
		return err
	}
	if d.count == 0 {
		result.Outcome = OutcomeNoop
		result.LastTradeID = max(watermark, e.LastTradeID())
		return nil
	}
	result.NewTrades = d.count

	// The checkpoint never moves backwards, even after a failed checkpoint read.
	target := max(watermark, d.maxID, e.LastTradeID())

	snapshotID, err := e.snapshots.Create(ctx, &domain.Snapshot{
		RunID:            result.RunID,
		SnapshotType:     domain.SnapshotTypeAutomated,
		RecordsProcessed: d.count,
		Status:           domain.SnapshotProcessing,
		LastTradeID:      target,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	result.SnapshotID = snapshotID
	log.Debug().Int64("snapshot_id", snapshotID).Int64("target", target).Int64("new_trades", d.count).Msg("snapshot created")

	set, err := e.recompute(ctx, snapshotID, target, result)
	if err != nil {
		e.markFailed(ctx, log, snapshotID, err)
		return err
	}

	result.Outcome = OutcomeCompleted
	result.LastTradeID = target
	result.RowsWritten = set.RowCount()
	e.advance(target)
	e.metrics.RecordTradesProcessed(d.count)
	e.metrics.RecordRows(set)

	e.export(ctx, log, snapshotID, set)
	return nil
}

// recompute derives all tables over trades with id <= target and commits them
// together with the snapshot completion.
func (e *Engine) recompute(ctx context.Context, snapshotID, target int64, result *CycleResult) (*domain.AnalyticsSet, error) {
	trades, err := e.trades.ListClosed(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("load closed trades up to %d: %w", target, err)
	}
	result.TradesAnalyzed = len(trades)

	set, err := e.compute(trades, e.now())
	if err != nil {
		return nil, fmt.Errorf("compute analytics: %w", err)
	}

	err = e.analytics.InTx(ctx, func(tx storage.AnalyticsTx) error {
		if err := storage.ReplaceAll(ctx, tx, set); err != nil {
			return err
		}
		return tx.CompleteSnapshot(ctx, snapshotID, target)
	})
	if err != nil {
		return nil, fmt.Errorf("commit analytics: %w", err)
	}
	return set, nil
}

func (e *Engine) markFailed(ctx context.Context, log zerolog.Logger, snapshotID int64, cause error) {
	// The snapshot must be closed out even when ctx is what failed the cycle.
	if err := e.snapshots.MarkFailed(context.WithoutCancel(ctx), snapshotID, cause.Error()); err != nil {
		log.Error().Err(err).Int64("snapshot_id", snapshotID).Msg("mark snapshot failed")
	}
}

func (e *Engine) export(ctx context.Context, log zerolog.Logger, snapshotID int64, set *domain.AnalyticsSet) {
	if e.exporter == nil {
		return
	}
	if err := e.exporter.Export(ctx, snapshotID, set); err != nil {
		e.metrics.RecordExportError()
		log.Warn().Err(err).Int64("snapshot_id", snapshotID).Msg("analytics export failed")
	}
}
