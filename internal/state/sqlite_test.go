package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapetl/internal/testutil"
	"github.com/leapstack-labs/leapetl/pkg/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(filepath.Join(t.TempDir(), "state.db")))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestOpenInMemory(t *testing.T) {
	s := NewSQLiteStore(nil)
	require.NoError(t, s.Open(":memory:"))
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Migrate())

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(), "re-running migrations must be a no-op")
}

func TestOperationsRequireOpen(t *testing.T) {
	s := NewSQLiteStore(nil)

	_, err := s.CreateRun("dev")
	assert.Error(t, err)
	_, err = s.GetRun("x")
	assert.Error(t, err)
	assert.Error(t, s.Migrate())
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "dev", run.Environment)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun("no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestCompleteRun(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	require.NoError(t, s.CompleteRun(run.ID, RunStatusCompleted, ""))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.StartedAt))
	assert.Empty(t, got.Error)
}

func TestCompleteRunFailedKeepsError(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	require.NoError(t, s.CompleteRun(run.ID, RunStatusFailed, "extract: table programs: boom"))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "extract: table programs: boom", got.Error)
}

func TestCompleteRunUnknownID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.CompleteRun("no-such-run", RunStatusCompleted, ""))
}

func TestGetLatestRun(t *testing.T) {
	s := newTestStore(t)

	latest, err := s.GetLatestRun("dev")
	require.NoError(t, err)
	assert.Nil(t, latest, "no runs yet")

	first, err := s.CreateRun("dev")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.CreateRun("dev")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.CreateRun("prod")
	require.NoError(t, err)

	latest, err = s.GetLatestRun("dev")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.NotEqual(t, first.ID, latest.ID)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := s.CreateRun("dev")
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(5 * time.Millisecond)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStageRunLifecycle(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	extract, err := s.StartStageRun(run.ID, core.StageExtract)
	require.NoError(t, err)
	assert.Equal(t, run.ID, extract.RunID)
	assert.Equal(t, core.StageExtract, extract.Stage)
	assert.Equal(t, StageRunStatusRunning, extract.Status)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.CompleteStageRun(extract.ID, StageRunStatusSuccess, 42, ""))

	clean, err := s.StartStageRun(run.ID, core.StageClean)
	require.NoError(t, err)
	require.NoError(t, s.CompleteStageRun(clean.ID, StageRunStatusFailed, 0, "bad data"))

	stages, err := s.GetStageRunsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	assert.Equal(t, core.StageExtract, stages[0].Stage, "stage runs come back in start order")
	assert.Equal(t, StageRunStatusSuccess, stages[0].Status)
	assert.Equal(t, int64(42), stages[0].Rows)
	assert.Empty(t, stages[0].Error)
	require.NotNil(t, stages[0].CompletedAt)
	assert.GreaterOrEqual(t, stages[0].DurationMS, int64(0))

	assert.Equal(t, core.StageClean, stages[1].Stage)
	assert.Equal(t, StageRunStatusFailed, stages[1].Status)
	assert.Equal(t, "bad data", stages[1].Error)
}

func TestCompleteStageRunUnknownID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.CompleteStageRun("no-such-stage", StageRunStatusSuccess, 0, ""))
}

func TestGetStageRunsForRunEmpty(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	stages, err := s.GetStageRunsForRun(run.ID)
	require.NoError(t, err)
	assert.Empty(t, stages)
}
