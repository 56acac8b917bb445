package testutil

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
	"github.com/stretchr/testify/require"
)

// MockAdapter is an adapter backed by a sqlmock database, for exercising
// extract and load paths without a real server.
type MockAdapter struct {
	adapter.BaseSQLAdapter
	Dialect *core.DialectConfig
}

// NewMockAdapter returns a connected mock adapter and its expectation handle.
// The database is closed via t.Cleanup.
func NewMockAdapter(t testing.TB) (*MockAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := &MockAdapter{
		Dialect: &core.DialectConfig{
			Name:             "mock",
			Quote:            `"`,
			Placeholder:      core.PlaceholderQuestion,
			TransactionalDDL: true,
		},
	}
	a.DB = db
	a.Logger = NewTestLogger(t)
	return a, mock
}

// Connect is a no-op; the mock database is already open.
func (m *MockAdapter) Connect(_ context.Context, cfg core.AdapterConfig) error {
	m.Cfg = cfg
	return nil
}

// GetTableMetadata uses the shared information_schema implementation.
func (m *MockAdapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return m.GetTableMetadataCommon(ctx, table, m.Dialect)
}

// DialectConfig returns the mock dialect.
func (m *MockAdapter) DialectConfig() *core.DialectConfig {
	return m.Dialect
}
