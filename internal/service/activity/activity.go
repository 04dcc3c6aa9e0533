// Package activity records and queries the activity log.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"avencia-pm/internal/domain"
)

// Actions recorded in the activity log.
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionArchive      = "archive"
	ActionStatusChange = "status_change"
	ActionAddMember    = "add_member"
	ActionRemoveMember = "remove_member"
	ActionComment      = "comment"
	ActionLogin        = "login"
)

// Event describes one change to record.
type Event struct {
	Action      string
	EntityType  string
	EntityID    string
	EntityName  string
	Description string
	Metadata    map[string]any
}

// Logger writes activity entries on a best-effort basis: failures are
// logged at warn level and never returned to the caller. A nil *Logger
// discards events.
type Logger struct {
	repo   domain.ActivityRepository
	logger *slog.Logger
}

// NewLogger creates a Logger writing to repo.
func NewLogger(repo domain.ActivityRepository, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Logger{repo: repo, logger: logger}
}

// Record stores ev, attributing it to the principal in ctx when present.
func (l *Logger) Record(ctx context.Context, ev Event) {
	if l == nil || l.repo == nil {
		return
	}

	e := &domain.ActivityEntry{
		Action:      ev.Action,
		EntityType:  optional(ev.EntityType),
		EntityID:    optional(ev.EntityID),
		EntityName:  optional(ev.EntityName),
		Description: optional(ev.Description),
	}
	if p, ok := domain.PrincipalFromContext(ctx); ok && domain.IsID(p.UserID) {
		e.UserID = &p.UserID
	}
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err == nil {
			s := string(raw)
			e.Metadata = &s
		}
	}

	if err := l.repo.Insert(ctx, e); err != nil {
		l.logger.WarnContext(ctx, "activity log write failed",
			"action", ev.Action, "entity_type", ev.EntityType, "entity_id", ev.EntityID, "error", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Service lists and prunes activity entries.
type Service struct {
	repo domain.ActivityRepository
}

// NewService creates a Service.
func NewService(repo domain.ActivityRepository) *Service {
	return &Service{repo: repo}
}

// List returns a filtered page of activity entries, newest first unless the
// filter says otherwise.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.ActivityEntry], error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.ActivityEntry]{}, fmt.Errorf("list activity: %w", err)
	}
	return domain.NewPage(items, total, filter, 0), nil
}

// Prune deletes entries older than retention and returns how many were
// removed. A non-positive retention keeps everything.
func (s *Service) Prune(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteBefore(ctx, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune activity: %w", err)
	}
	return n, nil
}
