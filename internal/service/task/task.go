// Package task implements task management: workflow status, tags and
// comments.
package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"avencia-pm/internal/domain"
	"avencia-pm/internal/service/activity"
)

// Upcoming window bounds in days.
const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 365
)

// Service provides task operations with business rules and activity logging.
type Service struct {
	repo     domain.TaskRepository
	projects domain.ProjectRepository
	activity *activity.Logger
	now      func() time.Time
}

// NewService creates a task Service.
func NewService(repo domain.TaskRepository, projects domain.ProjectRepository, activityLog *activity.Logger) *Service {
	return &Service{repo: repo, projects: projects, activity: activityLog, now: time.Now}
}

// Create stores a task in an existing project together with any tags given
// on the request.
func (s *Service) Create(ctx context.Context, req domain.CreateTaskRequest) (*domain.TaskDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound("project %s not found", req.ProjectID)
	}

	fields := domain.Fields{
		"title":      strings.TrimSpace(req.Title),
		"project_id": req.ProjectID,
	}
	domain.SetIfNotNil(fields, "description", req.Description)
	domain.SetIfNotEmpty(fields, "status", req.Status)
	domain.SetIfNotEmpty(fields, "priority", req.Priority)
	domain.SetIfNotNil(fields, "assigned_to", req.AssignedTo)
	domain.SetIfNotNil(fields, "parent_task_id", req.ParentTaskID)
	domain.SetIfNotNil(fields, "estimated_hours", req.EstimatedHours)
	domain.SetTimeIfNotNil(fields, "due_date", req.DueDate)
	if req.Status == domain.TaskDone {
		fields["completed_at"] = s.now().UTC()
	}
	if principal, ok := domain.PrincipalFromContext(ctx); ok && domain.IsID(principal.UserID) {
		fields["created_by"] = principal.UserID
	}

	t, err := s.repo.CreateWithTags(ctx, fields, req.Tags)
	if err != nil {
		if domain.IsForeignKeyViolation(err) {
			return nil, domain.ErrValidation("assignee or parent task does not exist")
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionCreate,
		EntityType:  domain.EntityTask,
		EntityID:    t.ID,
		EntityName:  t.Title,
		Description: fmt.Sprintf("created task %s in %s", t.Title, p.Name),
		Metadata:    map[string]any{"project_id": t.ProjectID, "status": t.Status, "priority": t.Priority},
	})
	return s.Get(ctx, t.ID)
}

// Get returns the task with related names, comment count and tags.
func (s *Service) Get(ctx context.Context, id string) (*domain.TaskDetail, error) {
	t, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound("task %s not found", id)
	}
	return t, nil
}

// List returns a filtered page of detailed tasks.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.TaskDetail], error) {
	items, total, err := s.repo.ListDetailed(ctx, filter)
	if err != nil {
		return domain.Page[domain.TaskDetail]{}, fmt.Errorf("list tasks: %w", err)
	}
	return domain.NewPage(items, total, filter, 0), nil
}

// Update applies a partial update. Moving to done stamps completed_at;
// leaving done clears it. An empty AssignedTo unassigns the task.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateTaskRequest) (*domain.TaskDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound("task %s not found", id)
	}

	fields := domain.Fields{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	domain.SetIfNotNil(fields, "description", req.Description)
	domain.SetIfNotNil(fields, "status", req.Status)
	domain.SetIfNotNil(fields, "priority", req.Priority)
	domain.SetIfNotNil(fields, "estimated_hours", req.EstimatedHours)
	domain.SetIfNotNil(fields, "actual_hours", req.ActualHours)
	domain.SetTimeIfNotNil(fields, "due_date", req.DueDate)
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			fields["assigned_to"] = nil
		} else {
			fields["assigned_to"] = *req.AssignedTo
		}
	}
	if req.Status != nil && *req.Status != existing.Status {
		switch {
		case *req.Status == domain.TaskDone:
			fields["completed_at"] = s.now().UTC()
		case existing.Status == domain.TaskDone:
			fields["completed_at"] = nil
		}
	}

	if len(fields) > 0 {
		updated, err := s.repo.Update(ctx, id, fields)
		if err != nil {
			if domain.IsForeignKeyViolation(err) {
				return nil, domain.ErrValidation("assignee does not exist")
			}
			return nil, fmt.Errorf("update task: %w", err)
		}
		if updated == nil {
			return nil, domain.ErrNotFound("task %s not found", id)
		}
	}
	if req.Tags != nil {
		if err := s.repo.SetTags(ctx, id, req.Tags); err != nil {
			return nil, fmt.Errorf("set task tags: %w", err)
		}
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ev := activity.Event{
		Action:      activity.ActionUpdate,
		EntityType:  domain.EntityTask,
		EntityID:    t.ID,
		EntityName:  t.Title,
		Description: fmt.Sprintf("updated task %s", t.Title),
	}
	if t.Status != existing.Status {
		ev.Action = activity.ActionStatusChange
		ev.Description = fmt.Sprintf("moved task %s to %s", t.Title, t.Status)
		ev.Metadata = map[string]any{"from": existing.Status, "to": t.Status}
	}
	s.activity.Record(ctx, ev)
	return t, nil
}

// Delete removes a task with its tags and comments. Subtasks are kept and
// lose their parent.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.mustExist(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !removed {
		return domain.ErrNotFound("task %s not found", id)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionDelete,
		EntityType:  domain.EntityTask,
		EntityID:    id,
		EntityName:  existing.Title,
		Description: fmt.Sprintf("deleted task %s", existing.Title),
		Metadata:    map[string]any{"project_id": existing.ProjectID},
	})
	return nil
}

// SetTags replaces the task's tags and returns the stored set.
func (s *Service) SetTags(ctx context.Context, id string, tags []string) ([]string, error) {
	if err := domain.ValidateTags(tags); err != nil {
		return nil, err
	}
	if _, err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetTags(ctx, id, tags); err != nil {
		return nil, fmt.Errorf("set task tags: %w", err)
	}
	stored, err := s.repo.Tags(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task tags: %w", err)
	}

	s.activity.Record(ctx, activity.Event{
		Action:     activity.ActionUpdate,
		EntityType: domain.EntityTask,
		EntityID:   id,
		Metadata:   map[string]any{"tags": stored},
	})
	return stored, nil
}

// AddComment posts a comment on the task as the calling user.
func (s *Service) AddComment(ctx context.Context, taskID string, req domain.CreateCommentRequest) (*domain.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t, err := s.mustExist(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var userID *string
	if principal, ok := domain.PrincipalFromContext(ctx); ok && domain.IsID(principal.UserID) {
		userID = &principal.UserID
	}
	c, err := s.repo.AddComment(ctx, taskID, userID, strings.TrimSpace(req.Content))
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	s.activity.Record(ctx, activity.Event{
		Action:      activity.ActionComment,
		EntityType:  domain.EntityTask,
		EntityID:    t.ID,
		EntityName:  t.Title,
		Description: fmt.Sprintf("commented on %s", t.Title),
		Metadata:    map[string]any{"comment_id": c.ID},
	})
	return c, nil
}

// Comments lists the task's comments oldest first.
func (s *Service) Comments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	if _, err := s.mustExist(ctx, taskID); err != nil {
		return nil, err
	}
	comments, err := s.repo.Comments(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Upcoming returns open tasks due within the next days days, optionally
// limited to one assignee. Zero days means DefaultUpcomingDays.
func (s *Service) Upcoming(ctx context.Context, days int, assignee *string) ([]domain.TaskDetail, error) {
	if days == 0 {
		days = DefaultUpcomingDays
	}
	if days < 0 || days > MaxUpcomingDays {
		return nil, domain.ErrValidation("days must be between 1 and %d", MaxUpcomingDays)
	}
	if assignee != nil && *assignee == "" {
		assignee = nil
	}
	tasks, err := s.repo.Upcoming(ctx, time.Duration(days)*24*time.Hour, assignee)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	if tasks == nil {
		tasks = []domain.TaskDetail{}
	}
	return tasks, nil
}

// Metrics returns dashboard counts across all tasks.
func (s *Service) Metrics(ctx context.Context) (*domain.TaskMetrics, error) {
	m, err := s.repo.Metrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("task metrics: %w", err)
	}
	return m, nil
}

func (s *Service) mustExist(ctx context.Context, id string) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound("task %s not found", id)
	}
	return t, nil
}
