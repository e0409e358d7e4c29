package domain

import "time"

// Snapshot is one row of the analysis_snapshots audit log.
// A snapshot is created once per cycle attempt and updated once at cycle end.
type Snapshot struct {
	ID               int64
	RunID            string // correlation id shared with cycle log lines
	SnapshotType     string
	RecordsProcessed int64 // new closed trades detected for this cycle
	Status           SnapshotStatus
	LastTradeID      int64   // target checkpoint
	ErrorMessage     *string // set when Status is failed
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SnapshotStatus is the lifecycle state of a snapshot.
type SnapshotStatus string

// Snapshot lifecycle: processing -> completed | failed.
const (
	SnapshotProcessing SnapshotStatus = "processing"
	SnapshotCompleted  SnapshotStatus = "completed"
	SnapshotFailed     SnapshotStatus = "failed"
)

// SnapshotTypeAutomated marks snapshots written by the scheduled engine.
const SnapshotTypeAutomated = "automated_analysis"

// IsTerminal reports whether the status can no longer change.
func (s SnapshotStatus) IsTerminal() bool {
	return s == SnapshotCompleted || s == SnapshotFailed
}
