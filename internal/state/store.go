// Package state provides the optional run ledger: a SQLite database that
// records extraction runs, per-shard progress and sandbox errors outside
// the classifier taxonomy.
package state

import "time"

// RunStatus represents the status of an extraction run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Counts are the per-shard or per-run processing totals.
type Counts struct {
	Records    int64
	Candidates int64
	Rows       int64
	Skipped    int64
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.Records += o.Records
	c.Candidates += o.Candidates
	c.Rows += o.Rows
	c.Skipped += o.Skipped
}

// Run is one extraction run.
type Run struct {
	ID          string
	InputDir    string
	OutputPath  string
	Engine      string
	Mode        string
	Workers     int
	TotalShards int
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Counts      Counts
}

// ShardRun records a completed shard.
type ShardRun struct {
	RunID       string
	Shard       string
	Counts      Counts
	CompletedAt time.Time
}

// UnclassifiedError aggregates one engine error message outside the
// taxonomy.
type UnclassifiedError struct {
	Engine      string
	Message     string
	SampleQuery string
	RunID       string
	Occurrences int64
	FirstSeen   time.Time
	LastSeen    time.Time
}

// Store is the run ledger contract.
type Store interface {
	CreateRun(run Run) (*Run, error)
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string, totals Counts) error

	RecordShard(runID, shard string, c Counts) error
	ListShardRuns(runID string) ([]*ShardRun, error)

	RecordUnclassified(runID, engine, query, message string) error
	ListUnclassified(limit int) ([]*UnclassifiedError, error)

	Close() error
}
