package postgres

import (
	"context"
	"fmt"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := storage.Trades.InsertSQL(storage.Dollar)
	for _, t := range trades {
		if t == nil || t.TradeID <= 0 {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, storage.Trades.Values(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %d: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CountClosedAfter counts closed trades with trade_id > afterID.
func (s *TradeStore) CountClosedAfter(ctx context.Context, afterID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM trades WHERE is_open = FALSE AND trade_id > $1`

	var n int64
	if err := s.pool.QueryRow(ctx, query, afterID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count closed trades: %w", err)
	}
	return n, nil
}

// ListClosedAfter retrieves closed trades with trade_id > afterID.
func (s *TradeStore) ListClosedAfter(ctx context.Context, afterID int64) ([]*domain.Trade, error) {
	return s.list(ctx, "trade_id > $1", afterID)
}

// ListClosed retrieves closed trades with trade_id <= maxID.
func (s *TradeStore) ListClosed(ctx context.Context, maxID int64) ([]*domain.Trade, error) {
	return s.list(ctx, "trade_id <= $1", maxID)
}

// MaxClosedID returns the highest closed trade_id, or 0 when there are none.
func (s *TradeStore) MaxClosedID(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(MAX(trade_id), 0) FROM trades WHERE is_open = FALSE`

	var id int64
	if err := s.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("max closed trade id: %w", err)
	}
	return id, nil
}

func (s *TradeStore) list(ctx context.Context, cond string, arg int64) ([]*domain.Trade, error) {
	query := fmt.Sprintf("SELECT %s FROM trades WHERE is_open = FALSE AND %s ORDER BY trade_id ASC",
		storage.Trades.ColumnList(), cond)

	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query closed trades: %w", err)
	}
	defer rows.Close()

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
