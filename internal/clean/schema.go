package clean

import (
	"github.com/leapstack-labs/leapetl/pkg/core"
)

// Logical source table names used as keys into rule sets and cleaned-table
// maps, independent of the physical table names in the source database.
const (
	TablePrograms    = "programs"
	TableProjects    = "projects"
	TableProgress    = "progress"
	TableTeams       = "teams"
	TableTeamMembers = "team_members"
	TableMembers     = "members"
)

// SourceTables lists the logical source tables in extraction order.
func SourceTables() []string {
	return []string{
		TablePrograms,
		TableProjects,
		TableProgress,
		TableTeams,
		TableTeamMembers,
		TableMembers,
	}
}

// Rules returns the cleaning rules for a logical source table.
func Rules(table string) (TableRules, bool) {
	r, ok := rulesByTable[table]
	return r, ok
}

var rulesByTable = map[string]TableRules{
	TablePrograms: {
		Table: TablePrograms,
		Columns: []string{
			"program_id", "program_name", "status",
			"start_date", "end_date", "duration_weeks", "capacity", "is_active",
		},
		DateColumns:    []string{"start_date", "end_date"},
		NumericColumns: []string{"program_id", "duration_weeks", "capacity", "is_active"},
	},
	TableProjects: {
		Table: TableProjects,
		Columns: []string{
			"project_id", "program_id", "status", "due_date", "created_at", "week_number",
		},
		DateColumns:    []string{"due_date", "created_at"},
		NumericColumns: []string{"project_id", "program_id", "week_number"},
	},
	TableProgress: {
		Table: TableProgress,
		Columns: []string{
			"progress_id", "project_id", "member_id",
			"completion_percentage", "grade", "status", "start_date", "completion_date",
		},
		DateColumns:    []string{"start_date", "completion_date"},
		NumericColumns: []string{"progress_id", "project_id", "member_id", "completion_percentage", "grade"},
	},
	TableTeams: {
		Table: TableTeams,
		Columns: []string{
			"team_id", "team_name", "project_id", "score", "submission_date", "status",
		},
		DateColumns:    []string{"submission_date"},
		NumericColumns: []string{"team_id", "project_id", "score"},
	},
	TableTeamMembers: {
		Table: TableTeamMembers,
		Columns: []string{
			"team_id", "member_id", "joined_date",
		},
		DateColumns:    []string{"joined_date"},
		NumericColumns: []string{"team_id", "member_id"},
	},
	TableMembers: {
		Table: TableMembers,
		Columns: []string{
			"member_id", "full_name", "role",
		},
		NumericColumns: []string{"member_id"},
	},
}

// DeriveProgramColumns adds columns computed from cleaned program fields.
// Currently: duration_days = duration_weeks * 7, null when the source weeks
// value is missing.
func DeriveProgramColumns(ds *core.Dataset) {
	ds.AddColumn("duration_days")
	weeksIdx := ds.ColumnIndex("duration_weeks")
	daysIdx := ds.ColumnIndex("duration_days")
	if weeksIdx < 0 || daysIdx < 0 {
		return
	}
	for i := range ds.Rows {
		if w, ok := ds.Rows[i][weeksIdx].AsFloat(); ok {
			ds.Rows[i][daysIdx] = core.IntValue(int64(w) * 7)
		}
	}
}
