package adapter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapetl/pkg/core"
)

// stubAdapter is a minimal Adapter for registry tests.
type stubAdapter struct {
	BaseSQLAdapter
	dialect *core.DialectConfig
}

func (s *stubAdapter) Connect(_ context.Context, cfg core.AdapterConfig) error {
	s.Cfg = cfg
	return nil
}

func (s *stubAdapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return s.GetTableMetadataCommon(ctx, table, s.dialect)
}

func (s *stubAdapter) DialectConfig() *core.DialectConfig {
	return s.dialect
}

func registerStub(t *testing.T, name string) {
	t.Helper()
	Register(name, func(logger *slog.Logger) Adapter {
		return &stubAdapter{dialect: &core.DialectConfig{Name: name}}
	})
}

func TestRegisterAndGet(t *testing.T) {
	registerStub(t, "stub_get")

	factory, ok := Get("stub_get")
	require.True(t, ok)
	require.NotNil(t, factory)

	a := factory(nil)
	assert.Equal(t, "stub_get", a.DialectConfig().Name)

	_, ok = Get("never_registered")
	assert.False(t, ok)
}

func TestNewAdapter(t *testing.T) {
	registerStub(t, "stub_new")

	a, err := NewAdapter(core.AdapterConfig{Type: "stub_new"}, nil)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "stub_new", a.DialectConfig().Name)
}

func TestNewAdapterEmptyType(t *testing.T) {
	_, err := NewAdapter(core.AdapterConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter type not specified")
}

func TestNewAdapterUnknownType(t *testing.T) {
	registerStub(t, "stub_known")

	_, err := NewAdapter(core.AdapterConfig{Type: "sybase"}, nil)
	require.Error(t, err)

	var unknownErr *UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "sybase", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "stub_known",
		"the error lists what is registered")
}

func TestIsRegistered(t *testing.T) {
	registerStub(t, "stub_registered")

	assert.True(t, IsRegistered("stub_registered"))
	assert.False(t, IsRegistered("stub_missing"))
}

func TestListAdaptersSorted(t *testing.T) {
	registerStub(t, "stub_zz")
	registerStub(t, "stub_aa")

	names := ListAdapters()
	require.GreaterOrEqual(t, len(names), 2)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i], "names must come back sorted")
	}
}
