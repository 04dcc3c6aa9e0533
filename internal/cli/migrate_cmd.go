package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"avencia-pm/internal/db"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply pending migrations. Run `pmctl migrate status` to list them without applying.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateUp(cmd, opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateUp(cmd, opts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateStatus(cmd, opts)
		},
	})
	return cmd
}

func runMigrateUp(cmd *cobra.Command, opts *rootOptions) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := db.RunMigrations(cmd.Context(), s.db.Write, s.db.Driver); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
	return nil
}

type migrationRow struct {
	Version int64  `json:"version" yaml:"version"`
	Name    string `json:"name" yaml:"name"`
	Applied bool   `json:"applied" yaml:"applied"`
}

func runMigrateStatus(cmd *cobra.Command, opts *rootOptions) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	statuses, err := db.Migrations(cmd.Context(), s.db.Write, s.db.Driver)
	if err != nil {
		return err
	}
	rows := make([]migrationRow, len(statuses))
	for i, st := range statuses {
		rows[i] = migrationRow{Version: st.Version, Name: st.Name, Applied: st.Applied}
	}

	w := cmd.OutOrStdout()
	switch opts.output {
	case "json":
		return printJSON(w, rows)
	case "yaml":
		return printYAML(w, rows)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATE")
	for _, r := range rows {
		state := "pending"
		if r.Applied {
			state = "applied"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Version, r.Name, state)
	}
	return tw.Flush()
}
