package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trading-analytics/internal/domain"
	"trading-analytics/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu     sync.RWMutex
	data   map[int64]*domain.Snapshot
	nextID int64
	now    func() time.Time

	// failLastCompleted makes LastCompleted return this error (checkpoint read failure tests).
	failLastCompleted error
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data:   make(map[int64]*domain.Snapshot),
		nextID: 1,
		now:    time.Now,
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// FailLastCompleted makes subsequent LastCompleted calls return err. Pass nil to clear.
func (s *SnapshotStore) FailLastCompleted(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLastCompleted = err
}

// Create inserts a processing snapshot and returns its id.
func (s *SnapshotStore) Create(_ context.Context, snap *domain.Snapshot) (int64, error) {
	if snap == nil || snap.Status != domain.SnapshotProcessing {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *snap
	c.ID = s.nextID
	c.CreatedAt = s.now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.data[c.ID] = &c
	s.nextID++
	return c.ID, nil
}

// LastCompleted returns the completed snapshot with the highest id.
func (s *SnapshotStore) LastCompleted(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failLastCompleted != nil {
		return nil, s.failLastCompleted
	}

	var last *domain.Snapshot
	for _, snap := range s.data {
		if snap.Status != domain.SnapshotCompleted {
			continue
		}
		if last == nil || snap.ID > last.ID {
			last = snap
		}
	}
	if last == nil {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(last), nil
}

// MarkFailed moves a processing snapshot to failed.
func (s *SnapshotStore) MarkFailed(_ context.Context, id int64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transitionLocked(id, domain.SnapshotFailed, func(snap *domain.Snapshot) {
		msg := message
		snap.ErrorMessage = &msg
	})
}

// List returns up to limit snapshots, newest first.
func (s *SnapshotStore) List(_ context.Context, limit int) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Snapshot, 0, len(s.data))
	for _, snap := range s.data {
		result = append(result, copySnapshot(snap))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// completeLocked is applied by AnalyticsStore while committing a transaction.
// Caller must hold s.mu.
func (s *SnapshotStore) completeLocked(id, lastTradeID int64) error {
	return s.transitionLocked(id, domain.SnapshotCompleted, func(snap *domain.Snapshot) {
		snap.LastTradeID = lastTradeID
	})
}

// checkProcessingLocked validates that id can still transition. Caller must hold s.mu.
func (s *SnapshotStore) checkProcessingLocked(id int64) error {
	snap, ok := s.data[id]
	if !ok {
		return storage.ErrNotFound
	}
	if snap.Status != domain.SnapshotProcessing {
		return storage.ErrInvalidTransition
	}
	return nil
}

func (s *SnapshotStore) transitionLocked(id int64, to domain.SnapshotStatus, apply func(*domain.Snapshot)) error {
	if err := s.checkProcessingLocked(id); err != nil {
		return err
	}
	snap := s.data[id]
	snap.Status = to
	snap.UpdatedAt = s.now().UTC()
	apply(snap)
	return nil
}

func copySnapshot(snap *domain.Snapshot) *domain.Snapshot {
	c := *snap
	if snap.ErrorMessage != nil {
		msg := *snap.ErrorMessage
		c.ErrorMessage = &msg
	}
	return &c
}
