package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/leapstack-labs/leapetl/pkg/core"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Run operations ---

// CreateRun creates a new pipeline run.
func (s *SQLiteStore) CreateRun(env string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:          generateID(),
		Environment: env,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, environment, status, started_at, completed_at, error FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Environment, &run.Status, &run.StartedAt, &completedAt, &errMsg)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return run, nil
}

// GetLatestRun retrieves the most recent run for an environment.
// Returns nil without error when no run exists.
func (s *SQLiteStore) GetLatestRun(env string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var id string
	err := s.db.QueryRow(
		`SELECT id FROM runs WHERE environment = ? ORDER BY started_at DESC LIMIT 1`,
		env,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return s.GetRun(id)
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, environment, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Environment, &run.Status, &run.StartedAt, &completedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// CompleteRun marks a run as completed with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// --- Stage run operations ---

// StartStageRun records the start of a stage within a run.
func (s *SQLiteStore) StartStageRun(runID string, stage core.Stage) (*StageRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	sr := &StageRun{
		ID:        generateID(),
		RunID:     runID,
		Stage:     stage,
		Status:    StageRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("starting stage run", slog.String("run_id", runID), slog.String("stage", string(stage)))

	_, err := s.db.Exec(
		`INSERT INTO stage_runs (id, run_id, stage, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		sr.ID, sr.RunID, sr.Stage, sr.Status, sr.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start stage run: %w", err)
	}

	return sr, nil
}

// CompleteStageRun records the outcome of a stage run.
func (s *SQLiteStore) CompleteStageRun(id string, status StageRunStatus, rowCount int64, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE stage_runs
		 SET status = ?, rows = ?, error = ?, completed_at = ?,
		     duration_ms = CAST((julianday(?) - julianday(started_at)) * 86400000 AS INTEGER)
		 WHERE id = ?`,
		status, rowCount, errorPtr, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete stage run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("stage run not found: %s", id)
	}

	return nil
}

// GetStageRunsForRun retrieves stage runs for a run, in start order.
func (s *SQLiteStore) GetStageRunsForRun(runID string) ([]*StageRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, stage, status, rows, error, started_at, completed_at, duration_ms
		 FROM stage_runs WHERE run_id = ? ORDER BY started_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stageRuns []*StageRun
	for rows.Next() {
		sr := &StageRun{}
		var rowCount sql.NullInt64
		var errMsg sql.NullString
		var completedAt sql.NullTime
		var durationMS sql.NullInt64
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Stage, &sr.Status, &rowCount, &errMsg, &sr.StartedAt, &completedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}
		sr.Rows = rowCount.Int64
		sr.Error = errMsg.String
		if completedAt.Valid {
			sr.CompletedAt = &completedAt.Time
		}
		sr.DurationMS = durationMS.Int64
		stageRuns = append(stageRuns, sr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stage runs: %w", err)
	}

	return stageRuns, nil
}
