package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Long: `Show run history from the state database: when each run started, its
status, and the error that stopped it, if any.`,
		Example: `  # Show the last 10 runs
  leapetl runs

  # Show the last 50 runs
  leapetl runs --limit 50`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Maximum number of runs to show")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := cmdCtx.Store.ListRuns(opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run ID", "Environment", "Status", "Started", "Duration", "Error"})
	for _, run := range runs {
		duration := ""
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Environment,
			string(run.Status),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			duration,
			truncate(run.Error, 60),
		})
	}
	t.Render()
	fmt.Fprintf(out, "(%d runs)\n", len(runs))

	return nil
}

// shortID abbreviates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
