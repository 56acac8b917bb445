package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the default config file name.
const ConfigFileName = "leapetl.yaml"

// ConfigFileNameAlt is the alternate config file name.
const ConfigFileNameAlt = "leapetl.yml"

// configFileUsed tracks which file the last Load read, for verbose output.
var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > leapetl.yaml > leapetl.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// Environment variables use the LEAPETL_ prefix; a double underscore nests:
// LEAPETL_SOURCE__HOST maps to source.host.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"environment": DefaultEnv,
		"state_path":  DefaultStateFile,
		"log_file":    DefaultLogFile,
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	// 3. Environment variables (LEAPETL_ prefix)
	// Transform: LEAPETL_STATE_PATH -> state_path, LEAPETL_SOURCE__HOST -> source.host
	if err := k.Load(env.Provider("LEAPETL_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "LEAPETL_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state and --env for brevity; the config keys
			// are state_path and environment.
			switch key {
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "env":
				return "environment", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Environment-specific overrides
	if cfg.Environment != "" && cfg.Environments != nil {
		if envCfg, ok := cfg.Environments[cfg.Environment]; ok {
			if envCfg.StatePath != "" {
				cfg.StatePath = envCfg.StatePath
			}
			if envCfg.LogFile != "" {
				cfg.LogFile = envCfg.LogFile
			}
			cfg.Source = MergeTargetConfig(cfg.Source, envCfg.Source)
			cfg.Destination = MergeTargetConfig(cfg.Destination, envCfg.Destination)
		}
	}

	// Default the source to in-memory DuckDB so commands that never touch a
	// database (runs, version) work without a full config. An absent
	// destination reuses the source: the reports land next to the raw tables.
	if cfg.Source == nil {
		cfg.Source = &TargetConfig{Type: "duckdb"}
	}
	if cfg.Destination == nil {
		dest := *cfg.Source
		cfg.Destination = &dest
	}

	ApplyTargetDefaults(cfg.Source)
	ApplyTargetDefaults(cfg.Destination)

	expandTargetEnvVars(cfg.Source)
	expandTargetEnvVars(cfg.Destination)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration from the last successful Load,
// or nil if none has been loaded.
func GetCurrentConfig() *Config {
	return currentConfig
}

// currentConfig stores the last loaded config for access by commands.
var currentConfig *Config

// loggerKey is used to store the logger in the command context. Defined here
// so both the cli and commands packages can share it without an import cycle.
type loggerKey struct{}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// envVarPattern matches ${VAR} references in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as-is so the error surfaces at connect time.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive fields.
func expandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Host = expandEnvVars(t.Host)
	t.User = expandEnvVars(t.User)
	t.Password = expandEnvVars(t.Password)
	t.Database = expandEnvVars(t.Database)
	t.Path = expandEnvVars(t.Path)
}

// MergeTargetConfig merges two target configs, with override taking
// precedence field by field.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := &TargetConfig{
		Type:     base.Type,
		Path:     base.Path,
		Host:     base.Host,
		Port:     base.Port,
		User:     base.User,
		Password: base.Password,
		Database: base.Database,
		Schema:   base.Schema,
		Options:  make(map[string]string),
	}
	for k, v := range base.Options {
		merged.Options[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}

	return merged
}
