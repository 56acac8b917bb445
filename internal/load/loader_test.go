package load

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapetl/internal/testutil"
	"github.com/leapstack-labs/leapetl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFixture(t *testing.T) *core.Dataset {
	t.Helper()
	ds := core.NewDataset("member_progress_report", "member_id", "member_name", "avg_completion_pct")
	require.NoError(t, ds.AppendRow(core.IntValue(1), core.StringValue("Ann"), core.FloatValue(70)))
	require.NoError(t, ds.AppendRow(core.IntValue(2), core.Null(), core.Null()))
	return ds
}

func TestReplaceTransactionalSwap(t *testing.T) {
	db, mock := testutil.NewMockAdapter(t)
	ds := reportFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "reports_staging"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		`CREATE TABLE "reports_staging" ("member_id" BIGINT, "member_name" TEXT, "avg_completion_pct" DOUBLE PRECISION)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO "reports_staging" ("member_id", "member_name", "avg_completion_pct") VALUES (?, ?, ?), (?, ?, ?)`)).
		WithArgs(int64(1), "Ann", 70.0, int64(2), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "reports"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "reports_staging" RENAME TO "reports"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	l := New(db, testutil.NewTestLogger(t))
	require.NoError(t, l.Replace(context.Background(), ds, "reports"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceEmptyDatasetStillSwaps(t *testing.T) {
	db, mock := testutil.NewMockAdapter(t)
	ds := core.NewDataset("r", "a")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "r_staging"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "r_staging" ("a" TEXT)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "r"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "r_staging" RENAME TO "r"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	l := New(db, nil)
	require.NoError(t, l.Replace(context.Background(), ds, "r"),
		"an empty dataset still replaces the destination")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSequentialWhenDDLNotTransactional(t *testing.T) {
	db, mock := testutil.NewMockAdapter(t)
	db.Dialect.TransactionalDDL = false
	ds := core.NewDataset("r", "a")

	// No Begin/Commit: statements run one by one.
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "r_staging"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "r_staging" ("a" TEXT)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "r"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "r_staging" RENAME TO "r"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	l := New(db, nil)
	require.NoError(t, l.Replace(context.Background(), ds, "r"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceInsertFailureRollsBack(t *testing.T) {
	db, mock := testutil.NewMockAdapter(t)
	ds := reportFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	l := New(db, nil)
	err := l.Replace(context.Background(), ds, "reports")
	require.Error(t, err)

	assert.Equal(t, core.ErrorKindWrite, core.KindOf(err))
	var pe *core.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "reports", pe.Table)

	assert.NoError(t, mock.ExpectationsWereMet(), "swap must never run after a failed insert")
}

func TestReplaceBatchesLargeDatasets(t *testing.T) {
	db, mock := testutil.NewMockAdapter(t)

	ds := core.NewDataset("r", "n")
	for i := 0; i < 3; i++ {
		require.NoError(t, ds.AppendRow(core.IntValue(int64(i))))
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO`).WithArgs(int64(0), int64(1)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DROP TABLE IF EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`ALTER TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	l := New(db, nil)
	l.batchSize = 2
	require.NoError(t, l.Replace(context.Background(), ds, "r"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableSQLInfersTypes(t *testing.T) {
	d := &core.DialectConfig{Quote: `"`}

	ds := core.NewDataset("r", "id", "score", "seen", "note")
	require.NoError(t, ds.AppendRow(core.Null(), core.Null(), core.Null(), core.Null()))
	require.NoError(t, ds.AppendRow(
		core.IntValue(1), core.FloatValue(0.5), core.BoolValue(true), core.Null()))

	got := createTableSQL(`"r"`, ds, d)
	assert.Equal(t,
		`CREATE TABLE "r" ("id" BIGINT, "score" DOUBLE PRECISION, "seen" BOOLEAN, "note" TEXT)`,
		got, "types come from the first non-null value, all-null columns fall back to TEXT")
}
