package config

// Default configuration values.
const (
	DefaultStateFile = ".leapetl/state.db"
	DefaultLogFile   = ".leapetl/etl.log"
	DefaultEnv       = "dev"
)

// DefaultSchemaForType returns the default schema for a database type.
// MySQL has no schema concept separate from the database, so it stays empty.
func DefaultSchemaForType(dbType string) string {
	switch dbType {
	case "postgres":
		return "public"
	case "duckdb":
		return "main"
	default:
		return ""
	}
}

// ApplyTargetDefaults fills in type-specific defaults for a target.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
	case "duckdb":
		if t.Path == "" {
			t.Path = ":memory:"
		}
	}
}
