package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapetl/internal/clean"
	"github.com/leapstack-labs/leapetl/internal/config"
	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check source and destination connectivity",
		Long: `Verify that a run would be able to start: connect to the source and
destination databases, and inspect each source table's schema.

Columns the cleaner expects but the source lacks are reported as warnings;
they would be synthesized as nulls during a run, not fail it.`,
		Example: `  # Check the default environment
  leapetl doctor

  # Check prod connectivity
  leapetl doctor --env prod`,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	failures := 0

	fmt.Fprintf(out, "Environment: %s\n\n", cmdCtx.Cfg.Environment)

	source, ok := checkTarget(ctx, out, "source", cmdCtx.Cfg.Source, core.StageExtract, cmdCtx)
	if !ok {
		failures++
	}
	if source != nil {
		defer func() { _ = source.Close() }()
	}

	destination, ok := checkTarget(ctx, out, "destination", cmdCtx.Cfg.Destination, core.StageLoad, cmdCtx)
	if !ok {
		failures++
	}
	if destination != nil {
		defer func() { _ = destination.Close() }()
	}

	if source != nil {
		fmt.Fprintln(out, "")
		failures += checkSourceTables(ctx, out, source, cmdCtx.Cfg)
	}

	fmt.Fprintln(out, "")
	if failures > 0 {
		return fmt.Errorf("doctor found %d problem(s)", failures)
	}
	fmt.Fprintln(out, "All checks passed")
	return nil
}

// checkTarget connects and pings one target. Returns the connected adapter
// (nil on failure) and whether the check passed.
func checkTarget(ctx context.Context, out io.Writer, label string, target *config.TargetConfig, stage core.Stage, cmdCtx *CommandContext) (adapter.Adapter, bool) {
	a, err := connectTarget(ctx, target, stage, cmdCtx.Logger)
	if err != nil {
		fmt.Fprintf(out, "[fail] %s (%s): %v\n", label, target.Type, err)
		return nil, false
	}
	if err := a.Ping(ctx); err != nil {
		fmt.Fprintf(out, "[fail] %s (%s): ping: %v\n", label, target.Type, err)
		_ = a.Close()
		return nil, false
	}
	fmt.Fprintf(out, "[ok]   %s (%s) reachable\n", label, target.Type)
	return a, true
}

// checkSourceTables inspects every source table's schema and reports columns
// the cleaner would synthesize. Returns the number of hard failures.
func checkSourceTables(ctx context.Context, out io.Writer, source adapter.Adapter, cfg *config.Config) int {
	failures := 0
	for _, logical := range clean.SourceTables() {
		physical := logical
		if mapped, ok := cfg.Tables[logical]; ok && mapped != "" {
			physical = mapped
		}

		meta, err := source.GetTableMetadata(ctx, physical)
		if err != nil {
			fmt.Fprintf(out, "[fail] table %s: %v\n", physical, err)
			failures++
			continue
		}

		missing := missingColumns(logical, meta)
		if len(missing) > 0 {
			fmt.Fprintf(out, "[warn] table %s: %d columns, %d rows; missing %s (will be synthesized as nulls)\n",
				physical, len(meta.Columns), meta.RowCount, strings.Join(missing, ", "))
			continue
		}
		fmt.Fprintf(out, "[ok]   table %s: %d columns, %d rows\n", physical, len(meta.Columns), meta.RowCount)
	}
	return failures
}

// missingColumns lists expected columns absent from the table schema.
func missingColumns(logical string, meta *core.TableMetadata) []string {
	rules, ok := clean.Rules(logical)
	if !ok {
		return nil
	}
	present := make(map[string]struct{}, len(meta.Columns))
	for _, col := range meta.Columns {
		present[col.Name] = struct{}{}
	}
	var missing []string
	for _, col := range rules.Columns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
