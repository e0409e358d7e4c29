package engine

import (
	"context"
	"errors"

	"trading-analytics/internal/storage"
)

// readWatermark returns last_trade_id of the latest completed snapshot.
// A missing snapshot or a failed read yields 0, which reprocesses the full history.
func (e *Engine) readWatermark(ctx context.Context) int64 {
	snap, err := e.snapshots.LastCompleted(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return 0
	case err != nil:
		e.log.Warn().Err(err).Msg("checkpoint read failed, reprocessing full history")
		e.metrics.RecordCheckpointReadError()
		return 0
	}
	return snap.LastTradeID
}

// LastTradeID returns the checkpoint this engine last committed, or 0 before its first
// completed cycle.
func (e *Engine) LastTradeID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTradeID
}

func (e *Engine) advance(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id > e.lastTradeID {
		e.lastTradeID = id
	}
	e.metrics.SetCheckpoint(e.lastTradeID)
}
