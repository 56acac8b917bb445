// Package clean normalizes raw datasets: canonical date and numeric types,
// explicit null markers for unparseable values, and synthesized columns for
// schema drift.
package clean

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapetl/pkg/core"
)

// dateLayouts are tried in order when parsing string dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TableRules declares what the pipeline expects from one source table.
type TableRules struct {
	// Table is the logical table name (for logging).
	Table string

	// Columns are expected to exist; absent ones are synthesized all-null
	// so aggregation never fails on schema drift.
	Columns []string

	// DateColumns are coerced to the canonical time type.
	DateColumns []string

	// NumericColumns are coerced to the canonical numeric type.
	NumericColumns []string
}

// Apply returns a cleaned copy of the dataset. The input is never mutated;
// callers keep the raw dataset for auditing.
//
// Per-cell anomalies (bad dates, bad numbers) become nulls, never zeros, so
// downstream null-aware aggregation stays honest.
func Apply(ds *core.Dataset, rules TableRules, logger *slog.Logger) *core.Dataset {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out := ds.Clone()

	// Source schemas occasionally carry padded column names.
	for _, col := range out.Columns {
		if trimmed := strings.TrimSpace(col); trimmed != col {
			out.RenameColumn(col, trimmed)
		}
	}

	for _, col := range rules.Columns {
		if !out.HasColumn(col) {
			logger.Warn("expected column missing, synthesizing nulls",
				slog.String("table", rules.Table), slog.String("column", col))
			out.AddColumn(col)
		}
	}

	for _, col := range rules.DateColumns {
		coerceColumn(out, col, coerceDate)
	}
	for _, col := range rules.NumericColumns {
		coerceColumn(out, col, coerceNumeric)
	}

	return out
}

// coerceColumn rewrites every cell of a column through fn.
func coerceColumn(ds *core.Dataset, column string, fn func(core.Value) core.Value) {
	idx := ds.ColumnIndex(column)
	if idx < 0 {
		return
	}
	for i := range ds.Rows {
		ds.Rows[i][idx] = fn(ds.Rows[i][idx])
	}
}

// coerceDate converts a cell to the canonical time type.
// Unparseable values become null rather than raising.
func coerceDate(v core.Value) core.Value {
	switch v.Kind() {
	case core.KindTime:
		return v
	case core.KindString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if s == "" {
			return core.Null()
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return core.TimeValue(t)
			}
		}
		return core.Null()
	default:
		return core.Null()
	}
}

// coerceNumeric converts a cell to the canonical numeric type.
// Unparseable values become null, never zero: substituting zero would
// silently corrupt averages downstream.
func coerceNumeric(v core.Value) core.Value {
	switch v.Kind() {
	case core.KindInt, core.KindFloat:
		return v
	case core.KindBool:
		if b, _ := v.Bool(); b {
			return core.IntValue(1)
		}
		return core.IntValue(0)
	case core.KindString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if s == "" {
			return core.Null()
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return core.IntValue(i)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return core.FloatValue(f)
		}
		return core.Null()
	default:
		return core.Null()
	}
}
