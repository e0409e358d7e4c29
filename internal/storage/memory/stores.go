package memory

import "trading-analytics/internal/storage"

// NewStores returns linked in-memory stores: analytics commits complete
// snapshots held by the returned snapshot store.
func NewStores() storage.Stores {
	snapshots := NewSnapshotStore()
	return storage.Stores{
		Trades:    NewTradeStore(),
		Snapshots: snapshots,
		Analytics: NewAnalyticsStore(snapshots),
	}
}
