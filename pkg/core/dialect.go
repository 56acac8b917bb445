package core

import (
	"fmt"
	"strings"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// DialectConfig holds the static SQL dialect configuration for an adapter.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "postgres", "mysql")
	Name string

	// DefaultSchema is the default schema name ("public" for Postgres,
	// "main" for DuckDB)
	DefaultSchema string

	// Quote is the identifier quote character (" or `)
	Quote string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// TransactionalDDL reports whether DDL statements take effect inside a
	// transaction. When false, the loader's table swap is not atomic.
	TransactionalDDL bool

	// Types maps value kinds to column DDL types.
	Types map[ValueKind]string
}

// FormatPlaceholder returns the placeholder for the nth parameter (1-based).
func (d *DialectConfig) FormatPlaceholder(n int) string {
	if d.Placeholder == PlaceholderDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// QuoteIdent quotes an identifier, escaping embedded quote characters.
func (d *DialectConfig) QuoteIdent(name string) string {
	q := d.Quote
	if q == "" {
		q = `"`
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// ColumnType returns the DDL type for a value kind. Columns that carried
// only nulls fall back to TEXT.
func (d *DialectConfig) ColumnType(kind ValueKind) string {
	if d.Types != nil {
		if t, ok := d.Types[kind]; ok {
			return t
		}
	}
	switch kind {
	case KindBool:
		return "BOOLEAN"
	case KindInt:
		return "BIGINT"
	case KindFloat:
		return "DOUBLE PRECISION"
	case KindTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
