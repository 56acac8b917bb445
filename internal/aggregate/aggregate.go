// Package aggregate builds the three summary reports from cleaned source
// datasets.
//
// Aggregation is null-aware throughout: missing metrics are excluded from
// means rather than counted as zero, and a group with no usable inputs gets
// a null aggregate so "no data" never reads as "zero". Output rows are
// sorted ascending by the grouping identifier for deterministic, testable
// results.
package aggregate

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapetl/pkg/core"
)

// Report dataset names, which double as default destination table names.
const (
	ReportProgramSummary  = "program_summary_report"
	ReportTeamPerformance = "team_performance_report"
	ReportMemberProgress  = "member_progress_report"
)

// Sources holds the six cleaned source datasets.
type Sources struct {
	Programs    *core.Dataset
	Projects    *core.Dataset
	Progress    *core.Dataset
	Teams       *core.Dataset
	TeamMembers *core.Dataset
	Members     *core.Dataset
}

// Reports holds the three summary datasets.
type Reports struct {
	ProgramSummary  *core.Dataset
	TeamPerformance *core.Dataset
	MemberProgress  *core.Dataset
}

// Datasets returns the reports in load order.
func (r *Reports) Datasets() []*core.Dataset {
	return []*core.Dataset{r.ProgramSummary, r.TeamPerformance, r.MemberProgress}
}

// Build derives the three reports. Inputs are not mutated. A grouping key
// column missing from its dataset is un-groupable data and returns a
// TransformError; rows whose key value is null are skipped as a local
// data-quality condition.
func Build(src Sources, logger *slog.Logger) (*Reports, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := requireColumns(src); err != nil {
		return nil, err
	}

	programSummary := buildProgramSummary(src)
	teamPerformance := buildTeamPerformance(src)
	memberProgress := buildMemberProgress(src)

	for _, ds := range []*core.Dataset{programSummary, teamPerformance, memberProgress} {
		// Grouping column is always the first output column.
		if err := ds.SortByColumn(ds.Columns[0]); err != nil {
			return nil, core.NewTransformError(core.StageAggregate, ds.Name, err)
		}
		logger.Info("built report", slog.String("report", ds.Name), slog.Int("rows", ds.NumRows()))
	}

	return &Reports{
		ProgramSummary:  programSummary,
		TeamPerformance: teamPerformance,
		MemberProgress:  memberProgress,
	}, nil
}

// requireColumns verifies every grouping and join key exists.
func requireColumns(src Sources) error {
	checks := []struct {
		ds      *core.Dataset
		table   string
		columns []string
	}{
		{src.Programs, "programs", []string{"program_id"}},
		{src.Projects, "projects", []string{"project_id", "program_id"}},
		{src.Progress, "progress", []string{"project_id", "member_id"}},
		{src.Teams, "teams", []string{"team_id"}},
		{src.TeamMembers, "team_members", []string{"team_id", "member_id"}},
		{src.Members, "members", []string{"member_id"}},
	}
	for _, c := range checks {
		if c.ds == nil {
			return core.NewTransformError(core.StageAggregate, c.table, fmt.Errorf("dataset missing"))
		}
		for _, col := range c.columns {
			if !c.ds.HasColumn(col) {
				return core.NewTransformError(core.StageAggregate, c.table,
					fmt.Errorf("grouping key column %q missing", col))
			}
		}
	}
	return nil
}

// buildProgramSummary groups projects and progress by program.
func buildProgramSummary(src Sources) *core.Dataset {
	projectProgram := keyJoin(src.Projects, "project_id", "program_id")

	projectCount := map[string]int64{}
	for i := 0; i < src.Projects.NumRows(); i++ {
		if k, ok := keyOf(src.Projects.Value(i, "program_id")); ok {
			projectCount[k]++
		}
	}

	progressCount := map[string]int64{}
	completion := map[string]*meanAcc{}
	for i := 0; i < src.Progress.NumRows(); i++ {
		projectKey, ok := keyOf(src.Progress.Value(i, "project_id"))
		if !ok {
			continue
		}
		programKey, ok := projectProgram[projectKey]
		if !ok {
			// Orphaned foreign key: tolerated, not reported.
			continue
		}
		progressCount[programKey]++
		accumulate(completion, programKey, src.Progress.Value(i, "completion_percentage"))
	}

	// Teams attach to programs through the project they work on.
	teamProgram := map[string]string{}
	teamsPerProgram := map[string]map[string]struct{}{}
	for i := 0; i < src.Teams.NumRows(); i++ {
		teamKey, ok := keyOf(src.Teams.Value(i, "team_id"))
		if !ok {
			continue
		}
		projectKey, ok := keyOf(src.Teams.Value(i, "project_id"))
		if !ok {
			continue
		}
		programKey, ok := projectProgram[projectKey]
		if !ok {
			continue
		}
		teamProgram[teamKey] = programKey
		addToSet(teamsPerProgram, programKey, teamKey)
	}

	membersPerProgram := map[string]map[string]struct{}{}
	for i := 0; i < src.TeamMembers.NumRows(); i++ {
		teamKey, ok := keyOf(src.TeamMembers.Value(i, "team_id"))
		if !ok {
			continue
		}
		memberKey, ok := keyOf(src.TeamMembers.Value(i, "member_id"))
		if !ok {
			continue
		}
		if programKey, ok := teamProgram[teamKey]; ok {
			addToSet(membersPerProgram, programKey, memberKey)
		}
	}

	out := core.NewDataset(ReportProgramSummary,
		"program_id", "program_name", "project_count", "progress_count",
		"avg_completion_pct", "team_count", "member_count")

	seen := map[string]struct{}{}
	for i := 0; i < src.Programs.NumRows(); i++ {
		id := src.Programs.Value(i, "program_id")
		k, ok := keyOf(id)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		_ = out.AppendRow(
			id,
			src.Programs.Value(i, "program_name"),
			core.IntValue(projectCount[k]),
			core.IntValue(progressCount[k]),
			meanOf(completion, k),
			core.IntValue(int64(len(teamsPerProgram[k]))),
			core.IntValue(int64(len(membersPerProgram[k]))),
		)
	}

	return out
}

// buildTeamPerformance joins team members to progress via member and groups
// by team.
func buildTeamPerformance(src Sources) *core.Dataset {
	teamMembers := map[string]map[string]struct{}{}
	for i := 0; i < src.TeamMembers.NumRows(); i++ {
		teamKey, ok := keyOf(src.TeamMembers.Value(i, "team_id"))
		if !ok {
			continue
		}
		memberKey, ok := keyOf(src.TeamMembers.Value(i, "member_id"))
		if !ok {
			continue
		}
		addToSet(teamMembers, teamKey, memberKey)
	}

	progressPerMember := map[string]int64{}
	completionPerMember := map[string]*meanAcc{}
	for i := 0; i < src.Progress.NumRows(); i++ {
		memberKey, ok := keyOf(src.Progress.Value(i, "member_id"))
		if !ok {
			continue
		}
		progressPerMember[memberKey]++
		accumulate(completionPerMember, memberKey, src.Progress.Value(i, "completion_percentage"))
	}

	out := core.NewDataset(ReportTeamPerformance,
		"team_id", "team_name", "member_count", "progress_count", "avg_completion_pct")

	seen := map[string]struct{}{}
	for i := 0; i < src.Teams.NumRows(); i++ {
		id := src.Teams.Value(i, "team_id")
		k, ok := keyOf(id)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		var progressTotal int64
		teamCompletion := &meanAcc{}
		for memberKey := range teamMembers[k] {
			progressTotal += progressPerMember[memberKey]
			if acc, ok := completionPerMember[memberKey]; ok {
				teamCompletion.sum += acc.sum
				teamCompletion.n += acc.n
			}
		}

		_ = out.AppendRow(
			id,
			src.Teams.Value(i, "team_name"),
			core.IntValue(int64(len(teamMembers[k]))),
			core.IntValue(progressTotal),
			teamCompletion.mean(),
		)
	}

	return out
}

// buildMemberProgress groups progress by member. Every member from the
// members table appears; member identifiers seen only in progress rows are
// reported too, with a null name.
func buildMemberProgress(src Sources) *core.Dataset {
	type memberAgg struct {
		id       core.Value
		count    int64
		mean     meanAcc
		lastSeen core.Value
	}

	aggs := map[string]*memberAgg{}
	order := []string{}

	get := func(id core.Value) (*memberAgg, bool) {
		k, ok := keyOf(id)
		if !ok {
			return nil, false
		}
		a, ok := aggs[k]
		if !ok {
			a = &memberAgg{id: id, lastSeen: core.Null()}
			aggs[k] = a
			order = append(order, k)
		}
		return a, true
	}

	for i := 0; i < src.Members.NumRows(); i++ {
		_, _ = get(src.Members.Value(i, "member_id"))
	}

	for i := 0; i < src.Progress.NumRows(); i++ {
		a, ok := get(src.Progress.Value(i, "member_id"))
		if !ok {
			continue
		}
		a.count++
		if f, ok := src.Progress.Value(i, "completion_percentage").AsFloat(); ok {
			a.mean.sum += f
			a.mean.n++
		}
		for _, col := range []string{"start_date", "completion_date"} {
			if t, ok := src.Progress.Value(i, col).Time(); ok {
				if prev, hasPrev := a.lastSeen.Time(); !hasPrev || t.After(prev) {
					a.lastSeen = core.TimeValue(t)
				}
			}
		}
	}

	names := map[string]core.Value{}
	for i := 0; i < src.Members.NumRows(); i++ {
		if k, ok := keyOf(src.Members.Value(i, "member_id")); ok {
			if _, dup := names[k]; !dup {
				names[k] = src.Members.Value(i, "full_name")
			}
		}
	}

	out := core.NewDataset(ReportMemberProgress,
		"member_id", "member_name", "progress_count", "avg_completion_pct", "last_progress_at")

	for _, k := range order {
		a := aggs[k]
		name := core.Null()
		if n, ok := names[k]; ok {
			name = n
		}
		_ = out.AppendRow(
			a.id,
			name,
			core.IntValue(a.count),
			a.mean.mean(),
			a.lastSeen,
		)
	}

	return out
}

// --- helpers ---

// meanAcc accumulates a null-aware mean: only non-null values contribute.
type meanAcc struct {
	sum float64
	n   int64
}

// mean returns the accumulated mean, or null when nothing contributed.
func (m *meanAcc) mean() core.Value {
	if m.n == 0 {
		return core.Null()
	}
	return core.FloatValue(m.sum / float64(m.n))
}

// accumulate folds a metric value into the group's mean accumulator.
// Null and non-numeric values are excluded, not zeroed.
func accumulate(accs map[string]*meanAcc, key string, v core.Value) {
	f, ok := v.AsFloat()
	if !ok {
		return
	}
	acc, exists := accs[key]
	if !exists {
		acc = &meanAcc{}
		accs[key] = acc
	}
	acc.sum += f
	acc.n++
}

// meanOf returns the group's mean, or null when the group has no data.
func meanOf(accs map[string]*meanAcc, key string) core.Value {
	if acc, ok := accs[key]; ok {
		return acc.mean()
	}
	return core.Null()
}

// keyOf renders a grouping value as a canonical map key.
// ok is false for null keys, which are excluded from grouping.
func keyOf(v core.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// keyJoin builds a fromColumn -> toColumn lookup from a dataset, skipping
// rows where either side is null.
func keyJoin(ds *core.Dataset, fromColumn, toColumn string) map[string]string {
	out := map[string]string{}
	for i := 0; i < ds.NumRows(); i++ {
		from, ok := keyOf(ds.Value(i, fromColumn))
		if !ok {
			continue
		}
		to, ok := keyOf(ds.Value(i, toColumn))
		if !ok {
			continue
		}
		out[from] = to
	}
	return out
}

// addToSet inserts value into the named set, creating it when absent.
func addToSet(sets map[string]map[string]struct{}, key, value string) {
	set, ok := sets[key]
	if !ok {
		set = map[string]struct{}{}
		sets[key] = set
	}
	set[value] = struct{}{}
}
