// Package adapter provides database adapter interfaces and shared plumbing
// for LeapETL's extract and load stages.
//
// This package contains the public contract that all database adapters must
// implement. Concrete adapter implementations are in pkg/adapters/
// subdirectories and register themselves via init().
package adapter

import (
	"github.com/leapstack-labs/leapetl/pkg/core"
)

// Type aliases so adapter implementations and callers don't need to import
// pkg/core for the common types.
type (
	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)
