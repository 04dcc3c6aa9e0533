// Command server runs the project management HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"avencia-pm/internal/app"
	"avencia-pm/internal/config"
	"avencia-pm/internal/db"
	"avencia-pm/internal/seed"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	database, err := db.Open(ctx, cfg.DBOptions())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	logger.Info("running migrations", "driver", database.Driver)
	if err := db.RunMigrations(ctx, database.Write, database.Driver); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	a, err := app.New(app.Deps{Cfg: cfg, DB: database, Logger: logger})
	if err != nil {
		return err
	}

	if cfg.SeedFile != "" {
		if err := seedFrom(ctx, a, cfg.SeedFile, logger); err != nil {
			return err
		}
	}

	pruner, err := a.NewPruner()
	if err != nil {
		return err
	}
	if pruner != nil {
		pruner.Start()
		defer pruner.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr,
			"try", fmt.Sprintf("curl http://%s/healthz", curlHostForListenAddr(cfg.ListenAddr)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func seedFrom(ctx context.Context, a *app.App, path string, logger *slog.Logger) error {
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	seeder := seed.NewSeeder(a.Services.User, a.Services.Project, a.Services.Task, logger.With("component", "seed"))
	if _, err := seeder.Run(ctx, f, false); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// curlHostForListenAddr turns a listen address into a host:port usable in
// a local curl command.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
