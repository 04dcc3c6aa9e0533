package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avencia-pm/internal/db"
	"avencia-pm/internal/seed"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		file  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, projects and tasks",
		Long: "Apply migrations and load seed data. Without --file the built-in demo data is used " +
			"(or SEED_FILE when set). Seeding is skipped when users already exist unless --force is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if file == "" {
				file = s.cfg.SeedFile
			}
			f, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			if err := db.RunMigrations(cmd.Context(), s.db.Write, s.db.Driver); err != nil {
				return err
			}
			a, err := s.app()
			if err != nil {
				return err
			}

			seeder := seed.NewSeeder(a.Services.User, a.Services.Project, a.Services.Task, s.logger)
			res, err := seeder.Run(cmd.Context(), f, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintln(out, "Database already has users; nothing seeded (use --force to seed anyway).")
				return nil
			}
			fmt.Fprintf(out, "Seeded %d users, %d projects, %d tasks and %d comments.\n",
				res.Users, res.Projects, res.Tasks, res.Comments)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML seed file")
	cmd.Flags().BoolVar(&force, "force", false, "Seed even when users already exist")
	return cmd
}
