package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"avencia-pm/internal/app"
	"avencia-pm/internal/domain"
)

type taskRow struct {
	ID       string     `json:"id" yaml:"id"`
	Title    string     `json:"title" yaml:"title"`
	Status   string     `json:"status" yaml:"status"`
	Priority string     `json:"priority" yaml:"priority"`
	Project  string     `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	Assignee string     `json:"assignee_name,omitempty" yaml:"assignee_name,omitempty"`
	DueDate  *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Tags     []string   `json:"tags" yaml:"tags"`
}

func taskToRow(t domain.TaskDetail) taskRow {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskRow{
		ID:       t.ID,
		Title:    t.Title,
		Status:   string(t.Status),
		Priority: string(t.Priority),
		Project:  deref(t.ProjectName),
		Assignee: deref(t.AssigneeName),
		DueDate:  t.DueDate,
		Tags:     tags,
	}
}

var taskTable = table[taskRow]{
	headers: []string{"ID", "TITLE", "STATUS", "PRIORITY", "PROJECT", "ASSIGNEE", "DUE", "TAGS"},
	cells: func(r taskRow) []string {
		return []string{
			r.ID, r.Title, r.Status, r.Priority, r.Project, r.Assignee,
			formatDate(r.DueDate), strings.Join(r.Tags, ","),
		}
	},
}

func newTasksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect tasks",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Example: `  pmctl tasks list --filter status=in-progress --sort-by due_date --sort-order asc
  pmctl tasks list --filter tag=backend --filter due_to=2025-06-30 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := lf.listFilter(domain.TaskFilterKinds)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				page, err := a.Services.Task.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), opts.output, page, taskToRow, taskTable)
			})
		},
	}
	lf.register(list.Flags())
	cmd.AddCommand(list)
	return cmd
}
