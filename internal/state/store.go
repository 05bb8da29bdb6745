// Package state records materialization run history in a local SQLite
// database: one row per batch run and one row per table within the run.
package state

import "time"

// RunStatus is the lifecycle status of a batch run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TableStatus is the terminal status of one table within a run.
type TableStatus string

// Table statuses. Cached means built, persisted, and entered into the
// engine cache; Skipped means a prerequisite failed first.
const (
	TableStatusCached  TableStatus = "cached"
	TableStatusFailed  TableStatus = "failed"
	TableStatusSkipped TableStatus = "skipped"
)

// Run is one batch materialization.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// TableRun is the outcome of one table within a run.
type TableRun struct {
	ID         int64
	RunID      string
	Schema     string
	Table      string
	Status     TableStatus
	Rows       int64
	DurationMS int64
	Error      string
}

// Store is the run-history contract consumed by the engine and the CLI.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	CreateRun() (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordTableRun(tr *TableRun) error
	ListTableRuns(runID string) ([]*TableRun, error)
}
