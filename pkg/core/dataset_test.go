package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetAppendRow(t *testing.T) {
	ds := NewDataset("t", "a", "b")

	require.NoError(t, ds.AppendRow(IntValue(1), StringValue("x")))
	assert.Equal(t, 1, ds.NumRows())

	err := ds.AppendRow(IntValue(1))
	require.Error(t, err, "arity mismatch must be rejected")
}

func TestDatasetValueOutOfRange(t *testing.T) {
	ds := NewDataset("t", "a")
	require.NoError(t, ds.AppendRow(IntValue(1)))

	assert.True(t, ds.Value(5, "a").IsNull(), "out-of-range row reads as null")
	assert.True(t, ds.Value(0, "missing").IsNull(), "unknown column reads as null")
	assert.True(t, IntValue(1).Equal(ds.Value(0, "a")))
}

func TestDatasetCloneIsDeep(t *testing.T) {
	ds := NewDataset("t", "a")
	require.NoError(t, ds.AppendRow(IntValue(1)))

	clone := ds.Clone()
	clone.Rows[0][0] = IntValue(99)
	clone.AddColumn("b")

	assert.True(t, IntValue(1).Equal(ds.Value(0, "a")), "mutating the clone must not touch the original")
	assert.False(t, ds.HasColumn("b"))
}

func TestDatasetAddColumn(t *testing.T) {
	ds := NewDataset("t", "a")
	require.NoError(t, ds.AppendRow(IntValue(1)))

	ds.AddColumn("b")
	require.True(t, ds.HasColumn("b"))
	assert.True(t, ds.Value(0, "b").IsNull(), "new column backfills nulls")

	// Re-adding is a no-op.
	ds.AddColumn("b")
	assert.Equal(t, 2, ds.NumColumns())
}

func TestDatasetRenameColumn(t *testing.T) {
	ds := NewDataset("t", " a ")
	ds.RenameColumn(" a ", "a")

	assert.True(t, ds.HasColumn("a"))
	assert.False(t, ds.HasColumn(" a "))
}

func TestDatasetSortByColumn(t *testing.T) {
	ds := NewDataset("t", "id")
	require.NoError(t, ds.AppendRow(IntValue(3)))
	require.NoError(t, ds.AppendRow(Null()))
	require.NoError(t, ds.AppendRow(IntValue(1)))

	require.NoError(t, ds.SortByColumn("id"))

	assert.True(t, IntValue(1).Equal(ds.Value(0, "id")))
	assert.True(t, IntValue(3).Equal(ds.Value(1, "id")))
	assert.True(t, ds.Value(2, "id").IsNull(), "nulls sort last")

	require.Error(t, ds.SortByColumn("missing"))
}

func TestDatasetEqual(t *testing.T) {
	a := NewDataset("a", "x")
	require.NoError(t, a.AppendRow(IntValue(1)))

	b := NewDataset("b", "x")
	require.NoError(t, b.AppendRow(FloatValue(1.0)))

	assert.True(t, a.Equal(b), "name is not compared, numerics compare across kinds")

	c := NewDataset("c", "x")
	require.NoError(t, c.AppendRow(IntValue(2)))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
