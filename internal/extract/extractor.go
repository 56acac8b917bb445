// Package extract reads source tables into in-memory datasets.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
)

// Extractor materializes source tables as datasets over a connected adapter.
type Extractor struct {
	db     adapter.Adapter
	logger *slog.Logger
}

// New creates an extractor. If logger is nil, a discard logger is used.
func New(db adapter.Adapter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{db: db, logger: logger}
}

// Table reads one source table in full. The dataset's columns are exactly
// the source schema's columns; no renaming happens here. A failed read
// returns a QueryError.
func (e *Extractor) Table(ctx context.Context, table string) (*core.Dataset, error) {
	d := e.db.DialectConfig()

	query := fmt.Sprintf("SELECT * FROM %s", quoteTable(table, d)) //nolint:gosec // table names come from configuration, quoted via dialect
	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, core.NewQueryError(core.StageExtract, table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, core.NewQueryError(core.StageExtract, table, fmt.Errorf("failed to read columns: %w", err))
	}

	ds := core.NewDataset(table, columns...)

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, core.NewQueryError(core.StageExtract, table, fmt.Errorf("failed to scan row: %w", err))
		}

		cells := make([]core.Value, len(columns))
		for i, v := range values {
			cells[i] = core.FromDriver(v)
		}
		ds.Rows = append(ds.Rows, cells)
	}

	if err := rows.Err(); err != nil {
		return nil, core.NewQueryError(core.StageExtract, table, fmt.Errorf("error iterating rows: %w", err))
	}

	e.logger.Info("extracted table", slog.String("table", table), slog.Int("rows", ds.NumRows()))
	return ds, nil
}

// Tables reads every named table. Extraction is all-or-nothing: the first
// failure aborts and no partial result is returned.
func (e *Extractor) Tables(ctx context.Context, tables []string) (map[string]*core.Dataset, error) {
	out := make(map[string]*core.Dataset, len(tables))
	for _, table := range tables {
		ds, err := e.Table(ctx, table)
		if err != nil {
			return nil, err
		}
		out[table] = ds
	}
	return out, nil
}

// quoteTable quotes a possibly schema-qualified table reference.
func quoteTable(table string, d *core.DialectConfig) string {
	schema, name := adapter.ParseQualifiedName(table, d)
	if schema == "" {
		return d.QuoteIdent(name)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(name)
}
