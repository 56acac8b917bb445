package pipeline

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapetl/internal/aggregate"
	"github.com/leapstack-labs/leapetl/internal/clean"
	"github.com/leapstack-labs/leapetl/internal/state"
	"github.com/leapstack-labs/leapetl/internal/testutil"
	"github.com/leapstack-labs/leapetl/pkg/core"
)

func newTestStore(t *testing.T) *state.SQLiteStore {
	t.Helper()

	s := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

// expectEmptyExtracts queues one empty result per source table, in
// extraction order.
func expectEmptyExtracts(mock sqlmock.Sqlmock, physical func(string) string) {
	for _, table := range clean.SourceTables() {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "` + physical(table) + `"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	}
}

// expectReportSwap queues the staged replace sequence for one report with no
// rows to insert.
func expectReportSwap(mock sqlmock.Sqlmock, table string) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "` + table + `_staging"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "` + table + `_staging"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "` + table + `"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "` + table + `_staging" RENAME TO "` + table + `"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func TestRunHappyPath(t *testing.T) {
	source, sourceMock := testutil.NewMockAdapter(t)
	dest, destMock := testutil.NewMockAdapter(t)
	store := newTestStore(t)

	expectEmptyExtracts(sourceMock, func(table string) string { return table })
	expectReportSwap(destMock, aggregate.ReportProgramSummary)
	expectReportSwap(destMock, aggregate.ReportTeamPerformance)
	expectReportSwap(destMock, aggregate.ReportMemberProgress)

	p := New(Options{
		Source:      source,
		Destination: dest,
		Store:       store,
		Logger:      testutil.NewTestLogger(t),
		Environment: "dev",
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	require.NotNil(t, result.Run)
	assert.Equal(t, state.RunStatusCompleted, result.Run.Status)
	assert.Equal(t, "dev", result.Run.Environment)
	require.NotNil(t, result.Run.CompletedAt)

	require.Len(t, result.Stages, 4)
	wantStages := []core.Stage{core.StageExtract, core.StageClean, core.StageAggregate, core.StageLoad}
	for i, sr := range result.Stages {
		assert.Equal(t, wantStages[i], sr.Stage)
		assert.Equal(t, state.StageRunStatusSuccess, sr.Status)
	}

	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, destMock.ExpectationsWereMet())
}

func TestRunExtractFailureAbortsEarly(t *testing.T) {
	source, sourceMock := testutil.NewMockAdapter(t)
	dest, destMock := testutil.NewMockAdapter(t)
	store := newTestStore(t)

	sourceMock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "programs"`)).
		WillReturnError(assert.AnError)

	p := New(Options{
		Source:      source,
		Destination: dest,
		Store:       store,
		Logger:      testutil.NewTestLogger(t),
		Environment: "dev",
	})

	result, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.ErrorKindQuery, core.KindOf(err))

	require.NotNil(t, result, "a failed run still carries its summary")
	require.NotNil(t, result.Run)
	assert.Equal(t, state.RunStatusFailed, result.Run.Status)
	assert.NotEmpty(t, result.Run.Error)

	require.Len(t, result.Stages, 1, "later stages must never start")
	assert.Equal(t, core.StageExtract, result.Stages[0].Stage)
	assert.Equal(t, state.StageRunStatusFailed, result.Stages[0].Status)
	assert.NotEmpty(t, result.Stages[0].Error)

	assert.NoError(t, destMock.ExpectationsWereMet(), "destination must stay untouched")
}

func TestRunTableAndReportMappings(t *testing.T) {
	source, sourceMock := testutil.NewMockAdapter(t)
	dest, destMock := testutil.NewMockAdapter(t)
	store := newTestStore(t)

	expectEmptyExtracts(sourceMock, func(table string) string {
		if table == clean.TablePrograms {
			return "raw_programs"
		}
		return table
	})
	expectReportSwap(destMock, "program_summary")
	expectReportSwap(destMock, aggregate.ReportTeamPerformance)
	expectReportSwap(destMock, aggregate.ReportMemberProgress)

	p := New(Options{
		Source:      source,
		Destination: dest,
		Store:       store,
		Environment: "dev",
		Tables:      map[string]string{clean.TablePrograms: "raw_programs"},
		Reports:     map[string]string{aggregate.ReportProgramSummary: "program_summary"},
	})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, destMock.ExpectationsWereMet())
}

func TestRunLoadFailureMarksLoadStage(t *testing.T) {
	source, sourceMock := testutil.NewMockAdapter(t)
	dest, destMock := testutil.NewMockAdapter(t)
	store := newTestStore(t)

	expectEmptyExtracts(sourceMock, func(table string) string { return table })
	destMock.ExpectBegin()
	destMock.ExpectExec(`DROP TABLE IF EXISTS`).WillReturnError(assert.AnError)
	destMock.ExpectRollback()

	p := New(Options{
		Source:      source,
		Destination: dest,
		Store:       store,
		Environment: "dev",
	})

	result, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.ErrorKindWrite, core.KindOf(err))

	require.Len(t, result.Stages, 4)
	for _, sr := range result.Stages[:3] {
		assert.Equal(t, state.StageRunStatusSuccess, sr.Status)
	}
	assert.Equal(t, core.StageLoad, result.Stages[3].Stage)
	assert.Equal(t, state.StageRunStatusFailed, result.Stages[3].Status)
}
