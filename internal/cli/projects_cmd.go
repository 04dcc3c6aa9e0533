package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"avencia-pm/internal/app"
	"avencia-pm/internal/domain"
)

type projectRow struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Status      string     `json:"status" yaml:"status"`
	Priority    string     `json:"priority" yaml:"priority"`
	Progress    int        `json:"progress" yaml:"progress"`
	Owner       string     `json:"created_by_name,omitempty" yaml:"created_by_name,omitempty"`
	MemberCount int64      `json:"member_count" yaml:"member_count"`
	TaskCount   int64      `json:"task_count" yaml:"task_count"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

func projectToRow(p domain.ProjectSummary) projectRow {
	return projectRow{
		ID:          p.ID,
		Name:        p.Name,
		Status:      string(p.Status),
		Priority:    string(p.Priority),
		Progress:    p.Progress,
		Owner:       deref(p.CreatedByName),
		MemberCount: p.MemberCount,
		TaskCount:   p.TaskCount,
		DueDate:     p.DueDate,
	}
}

var projectTable = table[projectRow]{
	headers: []string{"ID", "NAME", "STATUS", "PRIORITY", "PROGRESS", "MEMBERS", "TASKS", "DUE"},
	cells: func(r projectRow) []string {
		return []string{
			r.ID, r.Name, r.Status, r.Priority,
			strconv.Itoa(r.Progress) + "%",
			strconv.FormatInt(r.MemberCount, 10),
			strconv.FormatInt(r.TaskCount, 10),
			formatDate(r.DueDate),
		}
	},
}

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect projects",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := lf.listFilter(domain.ProjectFilterKinds)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				page, err := a.Services.Project.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), opts.output, page, projectToRow, projectTable)
			})
		},
	}
	lf.register(list.Flags())
	cmd.AddCommand(list)
	return cmd
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}
