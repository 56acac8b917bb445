// Package mysql provides a MySQL database adapter for LeapETL.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver

	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
)

var dialectConfig = &core.DialectConfig{
	Name:          "mysql",
	DefaultSchema: "",
	Quote:         "`",
	Placeholder:   core.PlaceholderQuestion,
	// MySQL commits implicitly around DDL, so the loader's table swap runs
	// as sequential statements rather than one transaction.
	TransactionalDDL: false,
	Types: map[core.ValueKind]string{
		core.KindBool:   "BOOLEAN",
		core.KindInt:    "BIGINT",
		core.KindFloat:  "DOUBLE",
		core.KindString: "TEXT",
		core.KindTime:   "DATETIME",
	},
}

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectConfig returns the static dialect configuration.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return dialectConfig
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildMySQLDSN(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a MySQL connection string.
// parseTime=true makes the driver scan DATE/DATETIME columns as time.Time.
func buildMySQLDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.Username, cfg.Password, host, port, cfg.Database)
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	// MySQL scopes information_schema by database rather than schema.
	d := *dialectConfig
	if d.DefaultSchema == "" {
		d.DefaultSchema = a.Cfg.Database
	}
	return a.GetTableMetadataCommon(ctx, table, &d)
}
