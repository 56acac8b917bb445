package adapter

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapetl/pkg/core"
)

func newBase(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &BaseSQLAdapter{DB: db}, mock
}

func TestBasePing(t *testing.T) {
	b, mock := newBase(t)
	mock.ExpectPing()

	assert.NoError(t, b.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseNotConnected(t *testing.T) {
	b := &BaseSQLAdapter{}

	assert.Error(t, b.Ping(context.Background()))
	assert.Error(t, b.Exec(context.Background(), "SELECT 1"))
	_, err := b.Query(context.Background(), "SELECT 1")
	assert.Error(t, err)
	_, err = b.Begin(context.Background())
	assert.Error(t, err)
	assert.False(t, b.IsConnected())
	assert.NoError(t, b.Close(), "closing an unconnected adapter is a no-op")
}

func TestBaseExec(t *testing.T) {
	b, mock := newBase(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM t WHERE id = ?`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, b.Exec(context.Background(), `DELETE FROM t WHERE id = ?`, int64(7)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseQuery(t *testing.T) {
	b, mock := newBase(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM t`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	rows, err := b.Query(context.Background(), `SELECT id FROM t`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var got []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		got = append(got, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{1, 2}, got)
}

func TestBaseBegin(t *testing.T) {
	b, mock := newBase(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := b.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseQualifiedName(t *testing.T) {
	d := &core.DialectConfig{DefaultSchema: "public"}

	tests := []struct {
		in         string
		wantSchema string
		wantName   string
	}{
		{"programs", "public", "programs"},
		{"raw.programs", "raw", "programs"},
		{"analytics.report", "analytics", "report"},
	}

	for _, tt := range tests {
		schema, name := ParseQualifiedName(tt.in, d)
		assert.Equal(t, tt.wantSchema, schema, tt.in)
		assert.Equal(t, tt.wantName, name, tt.in)
	}
}

func TestGetTableMetadataCommon(t *testing.T) {
	b, mock := newBase(t)
	d := &core.DialectConfig{DefaultSchema: "public", Quote: `"`, Placeholder: core.PlaceholderDollar}

	mock.ExpectQuery(`SELECT\s+column_name`).
		WithArgs("public", "programs").
		WillReturnRows(sqlmock.NewRows(
			[]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("program_id", "bigint", "NO", 1).
			AddRow("program_name", "text", "YES", 2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "public"."programs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	meta, err := b.GetTableMetadataCommon(context.Background(), "programs", d)
	require.NoError(t, err)

	assert.Equal(t, "public", meta.Schema)
	assert.Equal(t, "programs", meta.Name)
	assert.Equal(t, int64(12), meta.RowCount)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, "program_id", meta.Columns[0].Name)
	assert.False(t, meta.Columns[0].Nullable)
	assert.True(t, meta.Columns[1].Nullable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableMetadataCommonMissingTable(t *testing.T) {
	b, mock := newBase(t)
	d := &core.DialectConfig{DefaultSchema: "main", Placeholder: core.PlaceholderQuestion}

	mock.ExpectQuery(`SELECT\s+column_name`).
		WithArgs("main", "ghost").
		WillReturnRows(sqlmock.NewRows(
			[]string{"column_name", "data_type", "is_nullable", "ordinal_position"}))

	_, err := b.GetTableMetadataCommon(context.Background(), "ghost", d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
