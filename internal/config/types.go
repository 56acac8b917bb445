// Package config provides configuration management for LeapETL.
//
// Configuration is layered: built-in defaults, then leapetl.yaml, then
// LEAPETL_* environment variables, then CLI flags, highest last.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
)

// TargetConfig holds one database target: either the extraction source or
// the load destination.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, mysql, duckdb

	// File-based databases (DuckDB)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Common
	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Validate checks that the target names a registered adapter type.
func (t *TargetConfig) Validate() error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// AdapterConfig converts the target to an adapter connection config.
func (t *TargetConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     strings.ToLower(t.Type),
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// Config holds all CLI configuration options.
type Config struct {
	Environment string `koanf:"environment"`
	StatePath   string `koanf:"state_path"`
	LogFile     string `koanf:"log_file"`
	Verbose     bool   `koanf:"verbose"`

	Source      *TargetConfig `koanf:"source"`
	Destination *TargetConfig `koanf:"destination"`

	// Tables maps logical source table names to physical table names.
	Tables map[string]string `koanf:"tables"`

	// Reports maps report names to destination table names.
	Reports map[string]string `koanf:"reports"`

	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	StatePath   string        `koanf:"state_path"`
	LogFile     string        `koanf:"log_file"`
	Source      *TargetConfig `koanf:"source"`
	Destination *TargetConfig `koanf:"destination"`
}

// Validate checks the full configuration.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("invalid source configuration: %w", err)
	}
	if err := c.Destination.Validate(); err != nil {
		return fmt.Errorf("invalid destination configuration: %w", err)
	}
	return nil
}
