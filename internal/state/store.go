// Package state provides run-history persistence for LeapETL using SQLite.
// It records pipeline runs and the stage executions within them.
package state

import (
	"github.com/leapstack-labs/leapetl/pkg/core"
)

// Aliases for the core types this package persists.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// Run is an alias for core.Run.
	Run = core.Run

	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus

	// StageRun is an alias for core.StageRun.
	StageRun = core.StageRun

	// StageRunStatus is an alias for core.StageRunStatus.
	StageRunStatus = core.StageRunStatus
)

// Re-export status constants from core.
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusFailed    = core.RunStatusFailed

	StageRunStatusRunning = core.StageRunStatusRunning
	StageRunStatusSuccess = core.StageRunStatusSuccess
	StageRunStatusFailed  = core.StageRunStatusFailed
)
