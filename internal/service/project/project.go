// Package project implements project and membership management.
package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"avencia-pm/internal/domain"
	"avencia-pm/internal/service/activity"
)

// Service provides project operations with business rules and activity
// logging.
type Service struct {
	repo     domain.ProjectRepository
	users    domain.UserRepository
	activity *activity.Logger
	now      func() time.Time
}

// NewService creates a project Service.
func NewService(repo domain.ProjectRepository, users domain.UserRepository, activityLog *activity.Logger) *Service {
	return &Service{repo: repo, users: users, activity: activityLog, now: time.Now}
}

// Create stores a project. The calling user becomes its creator and owner.
func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := domain.Fields{"name": strings.TrimSpace(req.Name)}
	domain.SetIfNotNil(fields, "description", req.Description)
	domain.SetIfNotEmpty(fields, "status", req.Status)
	domain.SetIfNotEmpty(fields, "priority", req.Priority)
	domain.SetIfNotNil(fields, "budget", req.Budget)
	domain.SetTimeIfNotNil(fields, "start_date", req.StartDate)
	domain.SetTimeIfNotNil(fields, "due_date", req.DueDate)

	principal, hasPrincipal := domain.PrincipalFromContext(ctx)
	if hasPrincipal && domain.IsID(principal.UserID) {
		fields["created_by"] = principal.UserID
	}

	var p *domain.Project
	var err error
	if owner, ok := fields["created_by"].(string); ok {
		p, err = s.repo.CreateWithOwner(ctx, fields, owner)
	} else {
		p, err = s.repo.Create(ctx, fields)
	}
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionCreate,
		EntityType:  domain.EntityProject,
		EntityID:    p.ID,
		EntityName:  p.Name,
		Description: fmt.Sprintf("created project %s", p.Name),
		Metadata:    map[string]any{"status": p.Status, "priority": p.Priority},
	})
	return p, nil
}

// Get returns the project with creator name and counts.
func (s *Service) Get(ctx context.Context, id string) (*domain.ProjectSummary, error) {
	p, err := s.repo.GetSummary(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("project %s not found", id)
	}
	return p, nil
}

// List returns a filtered page of project summaries.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.ProjectSummary], error) {
	items, total, err := s.repo.ListSummaries(ctx, filter)
	if err != nil {
		return domain.Page[domain.ProjectSummary]{}, fmt.Errorf("list projects: %w", err)
	}
	return domain.NewPage(items, total, filter, 0), nil
}

// Update applies a partial update. Moving to completed stamps completed_at;
// moving away from it clears the stamp.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound("project %s not found", id)
	}

	fields := domain.Fields{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	domain.SetIfNotNil(fields, "description", req.Description)
	domain.SetIfNotNil(fields, "status", req.Status)
	domain.SetIfNotNil(fields, "priority", req.Priority)
	domain.SetIfNotNil(fields, "progress", req.Progress)
	domain.SetIfNotNil(fields, "budget", req.Budget)
	domain.SetTimeIfNotNil(fields, "start_date", req.StartDate)
	domain.SetTimeIfNotNil(fields, "due_date", req.DueDate)

	if req.Status != nil && *req.Status != existing.Status {
		switch {
		case *req.Status == domain.ProjectCompleted:
			fields["completed_at"] = s.now().UTC()
			if req.Progress == nil {
				fields["progress"] = 100
			}
		case existing.Status == domain.ProjectCompleted:
			fields["completed_at"] = nil
		}
	}
	if len(fields) == 0 {
		return existing, nil
	}

	p, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("project %s not found", id)
	}

	ev := activity.Event{
		Action:      activity.ActionUpdate,
		EntityType:  domain.EntityProject,
		EntityID:    p.ID,
		EntityName:  p.Name,
		Description: fmt.Sprintf("updated project %s", p.Name),
	}
	if p.Status != existing.Status {
		ev.Action = activity.ActionStatusChange
		ev.Metadata = map[string]any{"from": existing.Status, "to": p.Status}
	}
	s.activity.Record(ctx, ev)
	return p, nil
}

// Archive archives the project. Admins and managers only.
func (s *Service) Archive(ctx context.Context, id string) (*domain.Project, error) {
	if err := domain.RequireRole(ctx, "archive project", domain.RoleAdmin, domain.RoleManager); err != nil {
		return nil, err
	}
	p, err := s.repo.Archive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("archive project: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("project %s not found", id)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionArchive,
		EntityType:  domain.EntityProject,
		EntityID:    p.ID,
		EntityName:  p.Name,
		Description: fmt.Sprintf("archived project %s", p.Name),
	})
	return p, nil
}

// Delete removes the project. Projects with tasks that are not done cannot
// be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := domain.RequireRole(ctx, "delete project", domain.RoleAdmin, domain.RoleManager); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if existing == nil {
		return domain.ErrNotFound("project %s not found", id)
	}

	open, err := s.repo.CountIncompleteTasks(ctx, id)
	if err != nil {
		return fmt.Errorf("count incomplete tasks: %w", err)
	}
	if open > 0 {
		return domain.ErrConflict("project %q has %d incomplete tasks", existing.Name, open)
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if !removed {
		return domain.ErrNotFound("project %s not found", id)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionDelete,
		EntityType:  domain.EntityProject,
		EntityID:    id,
		EntityName:  existing.Name,
		Description: fmt.Sprintf("deleted project %s", existing.Name),
	})
	return nil
}

// Stats returns task counts for the project.
func (s *Service) Stats(ctx context.Context, id string) (*domain.ProjectStats, error) {
	if _, err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	return stats, nil
}

// AddMember adds a user to the project.
func (s *Service) AddMember(ctx context.Context, projectID string, req domain.AddMemberRequest) (*domain.ProjectMember, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.mustExist(ctx, projectID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound("user %s not found", req.UserID)
	}

	m, err := s.repo.AddMember(ctx, projectID, req.UserID, req.Role)
	if err != nil {
		if domain.IsUniqueViolation(err) {
			return nil, domain.ErrConflict("%s is already a member of %s", u.Name, p.Name)
		}
		return nil, fmt.Errorf("add project member: %w", err)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionAddMember,
		EntityType:  domain.EntityProject,
		EntityID:    p.ID,
		EntityName:  p.Name,
		Description: fmt.Sprintf("added %s to %s", u.Name, p.Name),
		Metadata:    map[string]any{"user_id": u.ID, "role": m.Role},
	})
	return m, nil
}

// RemoveMember removes a user from the project.
func (s *Service) RemoveMember(ctx context.Context, projectID, userID string) error {
	removed, err := s.repo.RemoveMember(ctx, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	if !removed {
		return domain.ErrNotFound("user %s is not a member of project %s", userID, projectID)
	}

	s.activity.Record(ctx, activity.Event{
		Action:     activity.ActionRemoveMember,
		EntityType: domain.EntityProject,
		EntityID:   projectID,
		Metadata:   map[string]any{"user_id": userID},
	})
	return nil
}

// Members lists the project's members.
func (s *Service) Members(ctx context.Context, projectID string) ([]domain.ProjectMember, error) {
	if _, err := s.mustExist(ctx, projectID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	return members, nil
}

func (s *Service) mustExist(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("project %s not found", id)
	}
	return p, nil
}
