package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

// Error kinds. Per-cell anomalies never surface as errors; only structural
// failures carry one of these kinds.
const (
	// ErrorKindConnection: the database could not be reached.
	ErrorKindConnection ErrorKind = "connection"
	// ErrorKindQuery: a source table is missing or a read query failed.
	ErrorKindQuery ErrorKind = "query"
	// ErrorKindTransform: cleaning or aggregation hit an unmaskable
	// condition, e.g. a grouping key column absent from its dataset.
	ErrorKindTransform ErrorKind = "transform"
	// ErrorKindWrite: a destination write failed.
	ErrorKindWrite ErrorKind = "write"
)

// PipelineError wraps a stage failure with its kind, the stage it occurred
// in, and optionally the table involved.
type PipelineError struct {
	Kind  ErrorKind
	Stage Stage
	Table string
	Err   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: table %s: %v", e.Stage, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewConnectionError wraps err as a connection failure.
func NewConnectionError(stage Stage, err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindConnection, Stage: stage, Err: err}
}

// NewQueryError wraps err as a read-query failure on the given table.
func NewQueryError(stage Stage, table string, err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindQuery, Stage: stage, Table: table, Err: err}
}

// NewTransformError wraps err as a transform failure on the given dataset.
func NewTransformError(stage Stage, table string, err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindTransform, Stage: stage, Table: table, Err: err}
}

// NewWriteError wraps err as a destination-write failure on the given table.
func NewWriteError(table string, err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindWrite, Stage: StageLoad, Table: table, Err: err}
}

// KindOf extracts the error kind from err's chain. Returns "" when err is
// not a pipeline error.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
