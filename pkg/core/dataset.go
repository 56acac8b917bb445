package core

import (
	"fmt"
	"sort"
)

// Dataset is an in-memory table: a name, an ordered column list, and rows of
// Values. Datasets are the unit of exchange between the pipeline stages.
type Dataset struct {
	Name    string
	Columns []string
	Rows    [][]Value

	colIndex map[string]int
}

// NewDataset creates an empty dataset with the given columns.
func NewDataset(name string, columns ...string) *Dataset {
	ds := &Dataset{
		Name:    name,
		Columns: append([]string(nil), columns...),
	}
	ds.rebuildIndex()
	return ds
}

func (d *Dataset) rebuildIndex() {
	d.colIndex = make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		d.colIndex[c] = i
	}
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (d *Dataset) ColumnIndex(name string) int {
	if d.colIndex == nil {
		d.rebuildIndex()
	}
	if i, ok := d.colIndex[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the dataset contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	return len(d.Rows)
}

// NumColumns returns the column count.
func (d *Dataset) NumColumns() int {
	return len(d.Columns)
}

// AppendRow adds a row. The number of values must match the column count.
func (d *Dataset) AppendRow(values ...Value) error {
	if len(values) != len(d.Columns) {
		return fmt.Errorf("dataset %s: row has %d values, want %d", d.Name, len(values), len(d.Columns))
	}
	d.Rows = append(d.Rows, append([]Value(nil), values...))
	return nil
}

// Value returns the cell at the given row and column. Out-of-range rows and
// unknown columns read as null.
func (d *Dataset) Value(row int, column string) Value {
	if row < 0 || row >= len(d.Rows) {
		return Null()
	}
	idx := d.ColumnIndex(column)
	if idx < 0 {
		return Null()
	}
	return d.Rows[row][idx]
}

// Clone returns a deep copy. Stages that reshape data clone first so callers
// keep the original for auditing.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Name, d.Columns...)
	out.Rows = make([][]Value, len(d.Rows))
	for i, row := range d.Rows {
		out.Rows[i] = append([]Value(nil), row...)
	}
	return out
}

// AddColumn appends a new all-null column. Adding an existing column is a
// no-op so cleaning can be applied repeatedly.
func (d *Dataset) AddColumn(name string) {
	if d.HasColumn(name) {
		return
	}
	d.Columns = append(d.Columns, name)
	d.rebuildIndex()
	for i := range d.Rows {
		d.Rows[i] = append(d.Rows[i], Null())
	}
}

// RenameColumn renames a column in place. Unknown columns are ignored.
func (d *Dataset) RenameColumn(from, to string) {
	idx := d.ColumnIndex(from)
	if idx < 0 || from == to {
		return
	}
	d.Columns[idx] = to
	d.rebuildIndex()
}

// SortByColumn stable-sorts rows ascending by the named column, nulls last.
func (d *Dataset) SortByColumn(name string) error {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("dataset %s: sort column %q not found", d.Name, name)
	}
	sort.SliceStable(d.Rows, func(i, j int) bool {
		return d.Rows[i][idx].Compare(d.Rows[j][idx]) < 0
	})
	return nil
}

// Equal reports structural equality: same columns in the same order and the
// same rows cell for cell. The name is not compared.
func (d *Dataset) Equal(other *Dataset) bool {
	if other == nil {
		return false
	}
	if len(d.Columns) != len(other.Columns) || len(d.Rows) != len(other.Rows) {
		return false
	}
	for i := range d.Columns {
		if d.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range d.Rows {
		for j := range d.Rows[i] {
			if !d.Rows[i][j].Equal(other.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}
