package core

import "time"

// Store defines the interface for run-history persistence.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Run operations
	CreateRun(env string) (*Run, error)
	GetRun(id string) (*Run, error)
	GetLatestRun(env string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error

	// Stage run operations
	StartStageRun(runID string, stage Stage) (*StageRun, error)
	CompleteStageRun(id string, status StageRunStatus, rows int64, errMsg string) error
	GetStageRunsForRun(runID string) ([]*StageRun, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a single pipeline invocation.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Stage identifies one of the four pipeline stages.
type Stage string

// Pipeline stages, in execution order.
const (
	StageExtract   Stage = "extract"
	StageClean     Stage = "clean"
	StageAggregate Stage = "aggregate"
	StageLoad      Stage = "load"
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageExtract, StageClean, StageAggregate, StageLoad}
}

// StageRunStatus represents the status of a single stage within a run.
type StageRunStatus string

// Stage run status constants.
const (
	StageRunStatusRunning StageRunStatus = "running"
	StageRunStatusSuccess StageRunStatus = "success"
	StageRunStatusFailed  StageRunStatus = "failed"
)

// StageRun records the execution of one stage within a run.
type StageRun struct {
	ID          string
	RunID       string
	Stage       Stage
	Status      StageRunStatus
	Rows        int64
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMS  int64
}
