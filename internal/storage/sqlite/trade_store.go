package sqlite

import (
	"context"
	"fmt"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// TradeStore implements storage.TradeStore using SQLite.
type TradeStore struct {
	db *DB
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(db *DB) *TradeStore {
	return &TradeStore{db: db}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, storage.Trades.InsertSQL(storage.Question))
	if err != nil {
		return fmt.Errorf("prepare trade insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if t == nil || t.TradeID <= 0 {
			return storage.ErrInvalidInput
		}
		if _, err := stmt.ExecContext(ctx, storage.Trades.Values(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %d: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CountClosedAfter counts closed trades with trade_id > afterID.
func (s *TradeStore) CountClosedAfter(ctx context.Context, afterID int64) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM trades WHERE is_open = 0 AND trade_id > ?`, afterID)
	if err != nil {
		return 0, fmt.Errorf("count closed trades: %w", err)
	}
	return n, nil
}

// ListClosedAfter retrieves closed trades with trade_id > afterID.
func (s *TradeStore) ListClosedAfter(ctx context.Context, afterID int64) ([]*domain.Trade, error) {
	return s.list(ctx, "trade_id > ?", afterID)
}

// ListClosed retrieves closed trades with trade_id <= maxID.
func (s *TradeStore) ListClosed(ctx context.Context, maxID int64) ([]*domain.Trade, error) {
	return s.list(ctx, "trade_id <= ?", maxID)
}

// MaxClosedID returns the highest closed trade_id, or 0 when there are none.
func (s *TradeStore) MaxClosedID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `SELECT COALESCE(MAX(trade_id), 0) FROM trades WHERE is_open = 0`)
	if err != nil {
		return 0, fmt.Errorf("max closed trade id: %w", err)
	}
	return id, nil
}

func (s *TradeStore) list(ctx context.Context, cond string, arg int64) ([]*domain.Trade, error) {
	query := fmt.Sprintf("SELECT %s FROM trades WHERE is_open = 0 AND %s ORDER BY trade_id ASC",
		storage.Trades.ColumnList(), cond)

	rows, err := s.db.QueryxContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query closed trades: %w", err)
	}

	trades, err := collect(rows, storage.Trades)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Trade, len(trades))
	for i := range trades {
		result[i] = &trades[i]
	}
	return result, nil
}
