// Package api provides the HTTP handlers for the project management REST API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"avencia-pm/internal/domain"
	"avencia-pm/internal/middleware"
	"avencia-pm/internal/service/activity"
	"avencia-pm/internal/service/dashboard"
	"avencia-pm/internal/service/project"
	"avencia-pm/internal/service/task"
	"avencia-pm/internal/service/user"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the /v1 API.
type Handler struct {
	users    *user.Service
	projects *project.Service
	tasks     *task.Service
	activity  *activity.Service
	dashboard *dashboard.Service

	tokens            middleware.TokenIssuer
	tokenTTL          time.Duration
	allowRegistration bool
	maxLimit          int
	db                Pinger
	logger            *slog.Logger
	now               func() time.Time
}

// Config carries the handler's non-service settings.
type Config struct {
	Tokens   middleware.TokenIssuer
	TokenTTL time.Duration
	// DisableRegistration turns POST /v1/auth/register off.
	DisableRegistration bool
	// MaxLimit caps the page size accepted from clients.
	MaxLimit int
	DB       Pinger
	Logger   *slog.Logger
}

// NewHandler creates a Handler over the given services.
func NewHandler(
	users *user.Service,
	projects *project.Service,
	tasks *task.Service,
	activityLog *activity.Service,
	dash *dashboard.Service,
	cfg Config,
) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 || maxLimit > domain.MaxPageSize {
		maxLimit = domain.MaxPageSize
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handler{
		users:             users,
		projects:          projects,
		tasks:             tasks,
		activity:          activityLog,
		dashboard:         dash,
		tokens:            cfg.Tokens,
		tokenTTL:          ttl,
		allowRegistration: !cfg.DisableRegistration,
		maxLimit:          maxLimit,
		db:                cfg.DB,
		logger:            logger,
		now:               time.Now,
	}
}

// Mount registers all routes on r. Everything under /v1 except login and
// register is wrapped in requireAuth.
func (h *Handler) Mount(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/register", h.register)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", h.me)
			r.Get("/dashboard", h.getDashboard)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.listUsers)
				r.Post("/", h.createUser)
				r.Get("/{id}", h.getUser)
				r.Patch("/{id}", h.updateUser)
				r.Delete("/{id}", h.deleteUser)
				r.Put("/{id}/status", h.updateUserStatus)
				r.Post("/{id}/deactivate", h.deactivateUser)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.listProjects)
				r.Post("/", h.createProject)
				r.Get("/{id}", h.getProject)
				r.Patch("/{id}", h.updateProject)
				r.Delete("/{id}", h.deleteProject)
				r.Post("/{id}/archive", h.archiveProject)
				r.Get("/{id}/stats", h.projectStats)
				r.Get("/{id}/members", h.listMembers)
				r.Post("/{id}/members", h.addMember)
				r.Delete("/{id}/members/{userID}", h.removeMember)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.listTasks)
				r.Post("/", h.createTask)
				// Static segments must be registered before /{id}.
				r.Get("/upcoming", h.upcomingTasks)
				r.Get("/metrics", h.taskMetrics)
				r.Get("/{id}", h.getTask)
				r.Patch("/{id}", h.updateTask)
				r.Delete("/{id}", h.deleteTask)
				r.Put("/{id}/tags", h.setTaskTags)
				r.Get("/{id}/comments", h.listComments)
				r.Post("/{id}/comments", h.addComment)
			})

			r.Get("/activity", h.listActivity)
		})
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps err to its HTTP status and writes the error body. Server
// side failures are logged with the request id.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, Error{Code: status, Message: errorMessage(status, err)})
}

// principal returns the authenticated caller. Routes behind requireAuth
// always have one.
func principal(r *http.Request) (domain.ContextPrincipal, bool) {
	return domain.PrincipalFromContext(r.Context())
}
