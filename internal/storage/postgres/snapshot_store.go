package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

const snapshotColumns = `id, run_id, snapshot_type, records_processed, status,
	last_trade_id, error_message, created_at, updated_at`

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Create inserts a processing snapshot and returns its id.
func (s *SnapshotStore) Create(ctx context.Context, snap *domain.Snapshot) (int64, error) {
	if snap == nil || snap.Status != domain.SnapshotProcessing {
		return 0, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_snapshots (
			run_id, snapshot_type, records_processed, status, last_trade_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		snap.RunID, snap.SnapshotType, snap.RecordsProcessed, string(snap.Status), snap.LastTradeID,
		time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// LastCompleted returns the completed snapshot with the highest id.
func (s *SnapshotStore) LastCompleted(ctx context.Context) (*domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM analysis_snapshots
		WHERE status = 'completed'
		ORDER BY id DESC
		LIMIT 1`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get last completed snapshot: %w", err)
	}
	return snap, nil
}

// MarkFailed moves a processing snapshot to failed.
func (s *SnapshotStore) MarkFailed(ctx context.Context, id int64, message string) error {
	return transition(ctx, s.pool, id, domain.SnapshotFailed, nil, &message)
}

// List returns up to limit snapshots, newest first. limit <= 0 returns all.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]*domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM analysis_snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

// transition moves a processing snapshot to a terminal status. It runs on the
// pool for MarkFailed and on the cycle transaction for CompleteSnapshot.
func transition(ctx context.Context, q querier, id int64, to domain.SnapshotStatus, lastTradeID *int64, message *string) error {
	query := `
		UPDATE analysis_snapshots
		SET status = $2,
			last_trade_id = COALESCE($3, last_trade_id),
			error_message = $4,
			updated_at = $5
		WHERE id = $1 AND status = 'processing'
	`

	tag, err := q.Exec(ctx, query, id, string(to), lastTradeID, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update snapshot %d: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status string
	err = q.QueryRow(ctx, `SELECT status FROM analysis_snapshots WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("get snapshot %d: %w", id, err)
	}
	return storage.ErrInvalidTransition
}

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := row.Scan(
		&snap.ID, &snap.RunID, &snap.SnapshotType, &snap.RecordsProcessed, (*string)(&snap.Status),
		&snap.LastTradeID, &snap.ErrorMessage, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
