package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapetl/internal/pipeline"
	"github.com/leapstack-labs/leapetl/pkg/core"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL pipeline",
		Long: `Execute the full pipeline: extract the source tables, clean them,
build the summary reports, and replace the destination tables.

Stages run strictly in order. The first failure aborts the run; stages
after the failed one are never started.`,
		Example: `  # Run with the default leapetl.yaml
  leapetl run

  # Run against the prod environment
  leapetl run --env prod`,
		RunE: runRun,
	}
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	startTime := time.Now()

	source, err := connectTarget(ctx, cmdCtx.Cfg.Source, core.StageExtract, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to source: %w", err)
	}
	defer func() { _ = source.Close() }()

	destination, err := connectTarget(ctx, cmdCtx.Cfg.Destination, core.StageLoad, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to destination: %w", err)
	}
	defer func() { _ = destination.Close() }()

	p := pipeline.New(pipeline.Options{
		Source:      source,
		Destination: destination,
		Store:       cmdCtx.Store,
		Logger:      cmdCtx.Logger,
		Environment: cmdCtx.Cfg.Environment,
		Tables:      cmdCtx.Cfg.Tables,
		Reports:     cmdCtx.Cfg.Reports,
	})

	result, runErr := p.Run(ctx)
	if result != nil {
		renderRunSummary(cmd, result, time.Since(startTime))
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

// renderRunSummary prints the per-stage outcome table for a run.
func renderRunSummary(cmd *cobra.Command, result *pipeline.Result, elapsed time.Duration) {
	out := cmd.OutOrStdout()

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "Status", "Rows", "Duration"})
	for _, sr := range result.Stages {
		t.AppendRow(table.Row{
			string(sr.Stage),
			string(sr.Status),
			sr.Rows,
			fmt.Sprintf("%dms", sr.DurationMS),
		})
	}
	t.Render()

	fmt.Fprintf(out, "Run %s: %s\n", result.Run.ID, result.Run.Status)
	if result.Run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", result.Run.Error)
	}
	fmt.Fprintf(out, "Completed in %s\n", elapsed.Round(time.Millisecond))
}
