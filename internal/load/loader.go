// Package load writes report datasets into destination tables using a
// full-refresh strategy: each dataset is staged into a shadow table and then
// swapped in place of the destination table.
package load

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
)

// defaultBatchSize bounds the number of rows per INSERT statement so
// parameter counts stay under driver limits.
const defaultBatchSize = 500

// stagingSuffix names the shadow table built next to the destination.
const stagingSuffix = "_staging"

// Loader replaces destination tables with dataset contents.
type Loader struct {
	db        adapter.Adapter
	logger    *slog.Logger
	batchSize int
}

// New creates a loader. If logger is nil, a discard logger is used.
func New(db adapter.Adapter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{db: db, logger: logger, batchSize: defaultBatchSize}
}

// execer abstracts a transaction and a bare connection so the swap sequence
// is written once.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// adapterExecer runs statements outside a transaction, for dialects where
// DDL commits implicitly.
type adapterExecer struct {
	db adapter.Adapter
}

func (a adapterExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, a.db.Exec(ctx, query, args...)
}

// Replace loads the dataset into the destination table, replacing any
// previous contents. An empty dataset still produces an empty destination
// table so stale data never survives a refresh.
//
// On dialects with transactional DDL the stage-and-swap runs in a single
// transaction and readers never observe a missing or half-written table.
// Elsewhere the statements run in sequence and the swap window is not
// atomic. All failures return a WriteError.
func (l *Loader) Replace(ctx context.Context, ds *core.Dataset, table string) error {
	d := l.db.DialectConfig()
	staging := table + stagingSuffix

	if d.TransactionalDDL {
		tx, err := l.db.Begin(ctx)
		if err != nil {
			return core.NewWriteError(table, fmt.Errorf("failed to begin transaction: %w", err))
		}
		if err := l.stageAndSwap(ctx, tx, d, ds, table, staging); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return core.NewWriteError(table, fmt.Errorf("failed to commit: %w", err))
		}
	} else {
		// DDL commits implicitly on this dialect, so each step stands alone.
		if err := l.stageAndSwap(ctx, adapterExecer{l.db}, d, ds, table, staging); err != nil {
			return err
		}
	}

	l.logger.Info("replaced destination table",
		slog.String("table", table), slog.Int("rows", ds.NumRows()))
	return nil
}

// stageAndSwap builds the staging table, fills it, and swaps it into place.
func (l *Loader) stageAndSwap(ctx context.Context, ex execer, d *core.DialectConfig, ds *core.Dataset, table, staging string) error {
	stagingRef := quoteTable(staging, d)
	tableRef := quoteTable(table, d)

	if _, err := ex.ExecContext(ctx, "DROP TABLE IF EXISTS "+stagingRef); err != nil {
		return core.NewWriteError(table, fmt.Errorf("failed to drop stale staging table: %w", err))
	}
	if _, err := ex.ExecContext(ctx, createTableSQL(stagingRef, ds, d)); err != nil {
		return core.NewWriteError(table, fmt.Errorf("failed to create staging table: %w", err))
	}
	if err := l.insertRows(ctx, ex, d, ds, table, stagingRef); err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx, "DROP TABLE IF EXISTS "+tableRef); err != nil {
		return core.NewWriteError(table, fmt.Errorf("failed to drop destination table: %w", err))
	}
	if _, err := ex.ExecContext(ctx, "ALTER TABLE "+stagingRef+" RENAME TO "+renameTarget(table, d)); err != nil {
		return core.NewWriteError(table, fmt.Errorf("failed to swap staging table: %w", err))
	}
	return nil
}

// insertRows writes the dataset in batches.
func (l *Loader) insertRows(ctx context.Context, ex execer, d *core.DialectConfig, ds *core.Dataset, table, stagingRef string) error {
	if ds.NumRows() == 0 {
		return nil
	}

	quoted := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		quoted[i] = d.QuoteIdent(c)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", stagingRef, strings.Join(quoted, ", "))

	for start := 0; start < len(ds.Rows); start += l.batchSize {
		end := start + l.batchSize
		if end > len(ds.Rows) {
			end = len(ds.Rows)
		}
		batch := ds.Rows[start:end]

		tuples := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(ds.Columns))
		n := 0
		for i, row := range batch {
			placeholders := make([]string, len(row))
			for j, v := range row {
				n++
				placeholders[j] = d.FormatPlaceholder(n)
				args = append(args, v.DriverArg())
			}
			tuples[i] = "(" + strings.Join(placeholders, ", ") + ")"
		}

		if _, err := ex.ExecContext(ctx, prefix+strings.Join(tuples, ", "), args...); err != nil {
			return core.NewWriteError(table, fmt.Errorf("failed to insert batch at row %d: %w", start, err))
		}
	}
	return nil
}

// createTableSQL builds the staging DDL. Each column's type is inferred from
// its first non-null value; all-null columns fall back to the dialect's text
// type. Every column is nullable: missing data is representable by design.
func createTableSQL(tableRef string, ds *core.Dataset, d *core.DialectConfig) string {
	defs := make([]string, len(ds.Columns))
	for i, col := range ds.Columns {
		defs[i] = d.QuoteIdent(col) + " " + d.ColumnType(columnKind(ds, i))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", tableRef, strings.Join(defs, ", "))
}

// columnKind finds the first non-null kind in a column.
func columnKind(ds *core.Dataset, idx int) core.ValueKind {
	for _, row := range ds.Rows {
		if k := row[idx].Kind(); k != core.KindNull {
			return k
		}
	}
	return core.KindNull
}

// quoteTable quotes a possibly schema-qualified table reference.
func quoteTable(table string, d *core.DialectConfig) string {
	schema, name := adapter.ParseQualifiedName(table, d)
	if schema == "" {
		return d.QuoteIdent(name)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(name)
}

// renameTarget returns the RENAME TO operand: bare table name, unqualified,
// since renames stay within the source table's schema.
func renameTarget(table string, d *core.DialectConfig) string {
	_, name := adapter.ParseQualifiedName(table, d)
	return d.QuoteIdent(name)
}
