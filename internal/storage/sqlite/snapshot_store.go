package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// snapshotRow maps analysis_snapshots for sqlx struct scanning.
type snapshotRow struct {
	ID               int64          `db:"id"`
	RunID            string         `db:"run_id"`
	SnapshotType     string         `db:"snapshot_type"`
	RecordsProcessed int64          `db:"records_processed"`
	Status           string         `db:"status"`
	LastTradeID      int64          `db:"last_trade_id"`
	ErrorMessage     sql.NullString `db:"error_message"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r snapshotRow) toDomain() *domain.Snapshot {
	snap := &domain.Snapshot{
		ID:               r.ID,
		RunID:            r.RunID,
		SnapshotType:     r.SnapshotType,
		RecordsProcessed: r.RecordsProcessed,
		Status:           domain.SnapshotStatus(r.Status),
		LastTradeID:      r.LastTradeID,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.ErrorMessage.Valid {
		msg := r.ErrorMessage.String
		snap.ErrorMessage = &msg
	}
	return snap
}

const selectSnapshots = `SELECT id, run_id, snapshot_type, records_processed, status,
	last_trade_id, error_message, created_at, updated_at FROM analysis_snapshots`

// SnapshotStore implements storage.SnapshotStore using SQLite.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Create inserts a processing snapshot and returns its id.
func (s *SnapshotStore) Create(ctx context.Context, snap *domain.Snapshot) (int64, error) {
	if snap == nil || snap.Status != domain.SnapshotProcessing {
		return 0, storage.ErrInvalidInput
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_snapshots (
			run_id, snapshot_type, records_processed, status, last_trade_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.SnapshotType, snap.RecordsProcessed, string(snap.Status), snap.LastTradeID, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}
	return id, nil
}

// LastCompleted returns the completed snapshot with the highest id.
func (s *SnapshotStore) LastCompleted(ctx context.Context) (*domain.Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, selectSnapshots+` WHERE status = 'completed' ORDER BY id DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get last completed snapshot: %w", err)
	}
	return row.toDomain(), nil
}

// MarkFailed moves a processing snapshot to failed.
func (s *SnapshotStore) MarkFailed(ctx context.Context, id int64, message string) error {
	return transition(ctx, s.db, id, domain.SnapshotFailed, nil, &message)
}

// List returns up to limit snapshots, newest first. limit <= 0 returns all.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]*domain.Snapshot, error) {
	query := selectSnapshots + ` ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var result []*domain.Snapshot
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// transition moves a processing snapshot to a terminal status, on the pool for
// MarkFailed and on the cycle transaction for CompleteSnapshot.
func transition(ctx context.Context, q sqlx.ExtContext, id int64, to domain.SnapshotStatus, lastTradeID *int64, message *string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE analysis_snapshots
		SET status = ?,
			last_trade_id = COALESCE(?, last_trade_id),
			error_message = ?,
			updated_at = ?
		WHERE id = ? AND status = 'processing'`,
		string(to), lastTradeID, message, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update snapshot %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update snapshot %d: %w", id, err)
	} else if n == 1 {
		return nil
	}

	var status string
	if err := sqlx.GetContext(ctx, q, &status, `SELECT status FROM analysis_snapshots WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("get snapshot %d: %w", id, err)
	}
	return storage.ErrInvalidTransition
}
