// Package cli provides the command-line interface for LeapETL.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/leapetl/internal/cli/commands"
	"github.com/leapstack-labs/leapetl/internal/config"
	"github.com/leapstack-labs/leapetl/internal/logging"
	"github.com/spf13/cobra"

	// Register database adapters.
	_ "github.com/leapstack-labs/leapetl/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapetl/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leapetl/pkg/adapters/postgres"
)

var (
	cfgFile     string
	cfg         *config.Config
	loggerClose func() error
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapetl",
		Short: "LeapETL - Relational ETL Pipeline",
		Long: `LeapETL extracts program, project, and member data from a relational
source, cleans and aggregates it into summary reports, and loads the
reports into a destination database with a full refresh.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger, closeFn, err := logging.New(logging.Options{
				LogFile: cfg.LogFile,
				Verbose: cfg.Verbose,
			})
			if err != nil {
				return err
			}
			loggerClose = closeFn

			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if loggerClose != nil {
				_ = loggerClose()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Relational ETL Pipeline built with Go
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leapetl.yaml)")
	rootCmd.PersistentFlags().String("state", "", "Path to run-history database")
	rootCmd.PersistentFlags().String("env", "", "Environment name (e.g., dev, prod)")
	rootCmd.PersistentFlags().String("log-file", "", "Path to rotating log file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Register completion for env flag
	_ = rootCmd.RegisterFlagCompletionFunc("env", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"dev", "staging", "prod"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
