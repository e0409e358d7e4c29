package memory

import (
	"context"
	"sort"
	"sync"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.Trade // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[int64]*domain.Trade),
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int64]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.TradeID <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TradeID] = struct{}{}
	}

	for _, t := range trades {
		s.data[t.TradeID] = copyTrade(t)
	}
	return nil
}

// Delete removes trades by id. It exists for fixtures that simulate pruned history.
func (s *TradeStore) Delete(_ context.Context, ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.data, id)
	}
}

// CountClosedAfter counts closed trades with trade_id > afterID.
func (s *TradeStore) CountClosedAfter(_ context.Context, afterID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for id, t := range s.data {
		if id > afterID && !t.IsOpen {
			n++
		}
	}
	return n, nil
}

// ListClosedAfter retrieves closed trades with trade_id > afterID.
func (s *TradeStore) ListClosedAfter(_ context.Context, afterID int64) ([]*domain.Trade, error) {
	return s.filter(func(t *domain.Trade) bool { return t.TradeID > afterID }), nil
}

// ListClosed retrieves closed trades with trade_id <= maxID.
func (s *TradeStore) ListClosed(_ context.Context, maxID int64) ([]*domain.Trade, error) {
	return s.filter(func(t *domain.Trade) bool { return t.TradeID <= maxID }), nil
}

// MaxClosedID returns the highest closed trade_id.
func (s *TradeStore) MaxClosedID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var maxID int64
	for id, t := range s.data {
		if !t.IsOpen && id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (s *TradeStore) filter(keep func(t *domain.Trade) bool) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if !t.IsOpen && keep(t) {
			result = append(result, copyTrade(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TradeID < result[j].TradeID
	})
	return result
}

func copyTrade(t *domain.Trade) *domain.Trade {
	c := *t
	if t.OpenDate != nil {
		v := *t.OpenDate
		c.OpenDate = &v
	}
	if t.CloseDate != nil {
		v := *t.CloseDate
		c.CloseDate = &v
	}
	if t.TradeDuration != nil {
		v := *t.TradeDuration
		c.TradeDuration = &v
	}
	if t.StopLossPct != nil {
		v := *t.StopLossPct
		c.StopLossPct = &v
	}
	return &c
}
