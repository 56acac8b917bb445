package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapetl/internal/config"
	"github.com/leapstack-labs/leapetl/internal/state"
	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Store  state.Store
}

// NewCommandContext creates a CommandContext with an open state store.
// Returns the context and a cleanup function that must be called (typically
// via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	store, err := openStateStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Store:  store,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to defaults when
// no Load has happened (e.g. in tests exercising a command directly).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Environment: config.DefaultEnv,
		StatePath:   config.DefaultStateFile,
		LogFile:     config.DefaultLogFile,
	}
}

// openStateStore opens and migrates the run-history database.
func openStateStore(cfg *config.Config, logger *slog.Logger) (state.Store, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// connectTarget creates and connects an adapter for a target. Connection
// failures are tagged with the stage they would have blocked.
func connectTarget(ctx context.Context, target *config.TargetConfig, stage core.Stage, logger *slog.Logger) (adapter.Adapter, error) {
	a, err := adapter.NewAdapter(target.AdapterConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, target.AdapterConfig()); err != nil {
		return nil, core.NewConnectionError(stage, err)
	}
	return a, nil
}
