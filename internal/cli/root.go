// Package cli implements pmctl, the administration tool that works
// directly against the database.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"avencia-pm/internal/app"
	"avencia-pm/internal/config"
	"avencia-pm/internal/db"
)

var version = "dev"

type rootOptions struct {
	envFile string
	output  string
}

// Execute runs pmctl and returns the process exit code.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "pmctl",
		Short:         "Project management administration tool",
		Long:          "pmctl manages the project database: migrations, seed data, users, projects and tasks.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutputFormat(opts.output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json, yaml)")

	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newSeedCmd(opts))
	rootCmd.AddCommand(newUsersCmd(opts))
	rootCmd.AddCommand(newProjectsCmd(opts))
	rootCmd.AddCommand(newTasksCmd(opts))

	return rootCmd
}

// session is an open database plus its configuration for one command run.
type session struct {
	cfg    *config.Config
	db     *db.Database
	logger *slog.Logger
}

func openSession(ctx context.Context, opts *rootOptions) (*session, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := cfg.NewLogger()
	for _, w := range cfg.Warnings {
		logger.Debug("config warning", "warning", w)
	}

	database, err := db.Open(ctx, cfg.DBOptions())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &session{cfg: cfg, db: database, logger: logger}, nil
}

func (s *session) app() (*app.App, error) {
	return app.New(app.Deps{Cfg: s.cfg, DB: s.db, Logger: s.logger})
}

func (s *session) Close() error {
	return s.db.Close()
}

// withApp opens a session, wires the services and runs fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(*app.App) error) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := s.app()
	if err != nil {
		return err
	}
	return fn(a)
}
