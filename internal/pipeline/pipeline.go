// Package pipeline orchestrates the four ETL stages: extract, clean,
// aggregate, load. Stages run strictly in order; the first failure aborts
// the run and later stages are never started.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapetl/internal/aggregate"
	"github.com/leapstack-labs/leapetl/internal/clean"
	"github.com/leapstack-labs/leapetl/internal/extract"
	"github.com/leapstack-labs/leapetl/internal/load"
	"github.com/leapstack-labs/leapetl/internal/state"
	"github.com/leapstack-labs/leapetl/pkg/adapter"
	"github.com/leapstack-labs/leapetl/pkg/core"
)

// Options configures a pipeline.
type Options struct {
	// Source is the connected adapter to extract from.
	Source adapter.Adapter

	// Destination is the connected adapter to load into.
	Destination adapter.Adapter

	// Store persists run and stage history. Required.
	Store state.Store

	// Logger receives run progress. Nil means discard.
	Logger *slog.Logger

	// Environment labels the run in history (e.g. "dev", "prod").
	Environment string

	// Tables maps logical source table names to physical names.
	// Absent entries default to the logical name.
	Tables map[string]string

	// Reports maps report names to destination table names.
	// Absent entries default to the report name.
	Reports map[string]string
}

// Pipeline runs the ETL stages against a pair of connected adapters.
type Pipeline struct {
	source      adapter.Adapter
	destination adapter.Adapter
	store       state.Store
	logger      *slog.Logger
	environment string
	tables      map[string]string
	reports     map[string]string
}

// Result summarizes a finished run, successful or not.
type Result struct {
	Run    *state.Run
	Stages []*state.StageRun
}

// New creates a pipeline from options.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	env := opts.Environment
	if env == "" {
		env = "default"
	}
	return &Pipeline{
		source:      opts.Source,
		destination: opts.Destination,
		store:       opts.Store,
		logger:      logger,
		environment: env,
		tables:      opts.Tables,
		reports:     opts.Reports,
	}
}

// Run executes the pipeline once and records it in the state store. The
// returned Result is populated best-effort even when the run fails, so
// callers can render a summary either way.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	run, err := p.store.CreateRun(p.environment)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	p.logger.Info("run started",
		slog.String("run_id", run.ID), slog.String("environment", run.Environment))

	runErr := p.execute(ctx, run.ID)

	status := state.RunStatusCompleted
	errMsg := ""
	if runErr != nil {
		status = state.RunStatusFailed
		errMsg = runErr.Error()
	}
	if err := p.store.CompleteRun(run.ID, status, errMsg); err != nil {
		p.logger.Error("failed to finalize run record",
			slog.String("run_id", run.ID), slog.String("error", err.Error()))
	}

	result := &Result{Run: run}
	if r, err := p.store.GetRun(run.ID); err == nil {
		result.Run = r
	}
	if stages, err := p.store.GetStageRunsForRun(run.ID); err == nil {
		result.Stages = stages
	}

	if runErr != nil {
		p.logger.Error("run failed",
			slog.String("run_id", run.ID), slog.String("error", runErr.Error()))
		return result, runErr
	}
	p.logger.Info("run completed", slog.String("run_id", run.ID))
	return result, nil
}

// execute runs the four stages in order, threading datasets between them.
func (p *Pipeline) execute(ctx context.Context, runID string) error {
	var raw map[string]*core.Dataset
	var cleaned map[string]*core.Dataset
	var reports *aggregate.Reports

	if err := p.runStage(ctx, runID, core.StageExtract, func(ctx context.Context) (int64, error) {
		extractor := extract.New(p.source, p.logger)
		raw = make(map[string]*core.Dataset, len(clean.SourceTables()))
		var rows int64
		for _, table := range clean.SourceTables() {
			ds, err := extractor.Table(ctx, p.sourceTable(table))
			if err != nil {
				return rows, err
			}
			ds.Name = table
			raw[table] = ds
			rows += int64(ds.NumRows())
		}
		return rows, nil
	}); err != nil {
		return err
	}

	if err := p.runStage(ctx, runID, core.StageClean, func(_ context.Context) (int64, error) {
		cleaned = make(map[string]*core.Dataset, len(raw))
		var rows int64
		for _, table := range clean.SourceTables() {
			rules, ok := clean.Rules(table)
			if !ok {
				return rows, core.NewTransformError(core.StageClean, table,
					fmt.Errorf("no cleaning rules defined"))
			}
			cleaned[table] = clean.Apply(raw[table], rules, p.logger)
			rows += int64(cleaned[table].NumRows())
		}
		clean.DeriveProgramColumns(cleaned[clean.TablePrograms])
		return rows, nil
	}); err != nil {
		return err
	}

	if err := p.runStage(ctx, runID, core.StageAggregate, func(_ context.Context) (int64, error) {
		var err error
		reports, err = aggregate.Build(aggregate.Sources{
			Programs:    cleaned[clean.TablePrograms],
			Projects:    cleaned[clean.TableProjects],
			Progress:    cleaned[clean.TableProgress],
			Teams:       cleaned[clean.TableTeams],
			TeamMembers: cleaned[clean.TableTeamMembers],
			Members:     cleaned[clean.TableMembers],
		}, p.logger)
		if err != nil {
			return 0, err
		}
		var rows int64
		for _, ds := range reports.Datasets() {
			rows += int64(ds.NumRows())
		}
		return rows, nil
	}); err != nil {
		return err
	}

	return p.runStage(ctx, runID, core.StageLoad, func(ctx context.Context) (int64, error) {
		loader := load.New(p.destination, p.logger)
		var rows int64
		for _, ds := range reports.Datasets() {
			if err := loader.Replace(ctx, ds, p.destinationTable(ds.Name)); err != nil {
				return rows, err
			}
			rows += int64(ds.NumRows())
		}
		return rows, nil
	})
}

// runStage records one stage in the state store around fn. On failure the
// stage row is marked failed and the error propagates to abort the run.
func (p *Pipeline) runStage(ctx context.Context, runID string, stage core.Stage, fn func(context.Context) (int64, error)) error {
	sr, err := p.store.StartStageRun(runID, stage)
	if err != nil {
		return fmt.Errorf("failed to record %s stage: %w", stage, err)
	}
	p.logger.Info("stage started", slog.String("stage", string(stage)))

	rows, err := fn(ctx)
	if err != nil {
		if serr := p.store.CompleteStageRun(sr.ID, state.StageRunStatusFailed, rows, err.Error()); serr != nil {
			p.logger.Error("failed to finalize stage record",
				slog.String("stage", string(stage)), slog.String("error", serr.Error()))
		}
		return err
	}

	if serr := p.store.CompleteStageRun(sr.ID, state.StageRunStatusSuccess, rows, ""); serr != nil {
		p.logger.Error("failed to finalize stage record",
			slog.String("stage", string(stage)), slog.String("error", serr.Error()))
	}
	p.logger.Info("stage finished",
		slog.String("stage", string(stage)), slog.Int64("rows", rows))
	return nil
}

func (p *Pipeline) sourceTable(logical string) string {
	if physical, ok := p.tables[logical]; ok && physical != "" {
		return physical
	}
	return logical
}

func (p *Pipeline) destinationTable(report string) string {
	if table, ok := p.reports[report]; ok && table != "" {
		return table
	}
	return report
}
