// Package app wires repositories, services and the HTTP router from a
// Config and an open Database.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"avencia-pm/internal/api"
	"avencia-pm/internal/config"
	"avencia-pm/internal/db"
	"avencia-pm/internal/db/repository"
	"avencia-pm/internal/db/store"
	"avencia-pm/internal/middleware"
	"avencia-pm/internal/service/activity"
	"avencia-pm/internal/service/dashboard"
	"avencia-pm/internal/service/project"
	"avencia-pm/internal/service/task"
	"avencia-pm/internal/service/user"
)

// tokenIssuer is the iss claim on tokens this server signs.
const tokenIssuer = "avencia-pm"

// Deps holds what main() must provide.
type Deps struct {
	Cfg    *config.Config
	DB     *db.Database
	Logger *slog.Logger
}

// Repos groups the repositories.
type Repos struct {
	Users    *repository.UserRepo
	Projects *repository.ProjectRepo
	Tasks    *repository.TaskRepo
	Activity *repository.ActivityRepo
}

// Services groups the services shared by the API and the CLI.
type Services struct {
	User      *user.Service
	Project   *project.Service
	Task      *task.Service
	Activity  *activity.Service
	Dashboard *dashboard.Service
}

// App is the fully wired application.
type App struct {
	Repos    Repos
	Services Services
	Tokens   *middleware.HS256Validator

	cfg    *config.Config
	db     *db.Database
	logger *slog.Logger
}

// New wires every repository and service. Writes go to the write pool;
// lists, counts and lookups use the read pool.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []store.Option{
		store.WithReadDB(deps.DB.Read),
		store.WithMaxLimit(cfg.PageSizeMax),
		store.WithQueryTimeout(cfg.DBQueryTimeout),
		store.WithLogger(logger.With("component", "store")),
	}
	repos := Repos{
		Users:    repository.NewUserRepo(deps.DB.Write, deps.DB.Dialect, opts...),
		Projects: repository.NewProjectRepo(deps.DB.Write, deps.DB.Dialect, opts...),
		Tasks:    repository.NewTaskRepo(deps.DB.Write, deps.DB.Dialect, opts...),
		Activity: repository.NewActivityRepo(deps.DB.Write, deps.DB.Dialect, opts...),
	}

	actLog := activity.NewLogger(repos.Activity, logger.With("component", "activity"))
	services := Services{
		User:      user.NewService(repos.Users, actLog),
		Project:   project.NewService(repos.Projects, repos.Users, actLog),
		Task:      task.NewService(repos.Tasks, repos.Projects, actLog),
		Activity:  activity.NewService(repos.Activity),
		Dashboard: dashboard.NewService(repos.Projects, repos.Tasks, repos.Users, repos.Activity),
	}

	tokens, err := middleware.NewHS256Validator(cfg.JWTSecret, tokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	return &App{
		Repos:    repos,
		Services: services,
		Tokens:   tokens,
		cfg:      cfg,
		db:       deps.DB,
		logger:   logger,
	}, nil
}

// Router builds the HTTP handler with the full middleware stack. The rate
// limiter's sweeper stops when ctx is done.
func (a *App) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(a.logger.With("component", "http")))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.RateLimitRPS,
		Burst:             a.cfg.RateLimitBurst,
	}))

	s := a.Services
	h := api.NewHandler(s.User, s.Project, s.Task, s.Activity, s.Dashboard, api.Config{
		Tokens:              a.Tokens,
		TokenTTL:            a.cfg.TokenTTL,
		DisableRegistration: a.cfg.DisableRegistration,
		MaxLimit:            a.cfg.PageSizeMax,
		DB:                  a.db.Write,
		Logger:              a.logger.With("component", "api"),
	})
	auth := middleware.NewAuthenticator(a.Tokens, a.Repos.Users, a.logger.With("component", "auth"))
	h.Mount(r, auth.Middleware())
	return r
}

// NewPruner returns the activity pruner, or nil when retention is disabled.
func (a *App) NewPruner() (*activity.Pruner, error) {
	if a.cfg.ActivityRetention <= 0 {
		return nil, nil
	}
	return activity.NewPruner(a.Services.Activity, a.cfg.ActivityPruneSchedule, a.cfg.ActivityRetention,
		a.logger.With("component", "activity-pruner"))
}
