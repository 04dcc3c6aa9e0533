package domain

import (
	"strings"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// ProjectStatus constants.
const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on-hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// Priority is shared by projects and tasks.
type Priority string

// Priority constants.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MemberRole is a user's role within one project.
type MemberRole string

// MemberRole constants.
const (
	MemberOwner   MemberRole = "owner"
	MemberManager MemberRole = "manager"
	MemberMember  MemberRole = "member"
	MemberViewer  MemberRole = "viewer"
)

// Valid reports whether r is a known project member role.
func (r MemberRole) Valid() bool {
	switch r {
	case MemberOwner, MemberManager, MemberMember, MemberViewer:
		return true
	}
	return false
}

// Project groups tasks and members.
type Project struct {
	ID          string        `mapstructure:"id"`
	Name        string        `mapstructure:"name"`
	Description *string       `mapstructure:"description"`
	Status      ProjectStatus `mapstructure:"status"`
	Priority    Priority      `mapstructure:"priority"`
	Progress    int           `mapstructure:"progress"`
	Budget      *float64      `mapstructure:"budget"`
	StartDate   *time.Time    `mapstructure:"start_date"`
	DueDate     *time.Time    `mapstructure:"due_date"`
	CreatedBy   *string       `mapstructure:"created_by"`
	CompletedAt *time.Time    `mapstructure:"completed_at"`
	ArchivedAt  *time.Time    `mapstructure:"archived_at"`
	CreatedAt   time.Time     `mapstructure:"created_at"`
	UpdatedAt   time.Time     `mapstructure:"updated_at"`
}

// ProjectSummary is a project decorated with creator and count columns.
type ProjectSummary struct {
	Project       `mapstructure:",squash"`
	CreatedByName *string `mapstructure:"created_by_name"`
	MemberCount   int64   `mapstructure:"member_count"`
	TaskCount     int64   `mapstructure:"task_count"`
}

// ProjectMember links a user to a project.
type ProjectMember struct {
	ID         string     `mapstructure:"id"`
	ProjectID  string     `mapstructure:"project_id"`
	UserID     string     `mapstructure:"user_id"`
	Role       MemberRole `mapstructure:"role"`
	JoinedAt   time.Time  `mapstructure:"joined_at"`
	UserName   string     `mapstructure:"user_name"`
	UserEmail  string     `mapstructure:"user_email"`
	UserAvatar *string    `mapstructure:"user_avatar"`
}

// ProjectStats counts a project's tasks by status.
type ProjectStats struct {
	TotalTasks      int64 `mapstructure:"total_tasks"`
	TodoTasks       int64 `mapstructure:"todo_tasks"`
	InProgressTasks int64 `mapstructure:"in_progress_tasks"`
	ReviewTasks     int64 `mapstructure:"review_tasks"`
	DoneTasks       int64 `mapstructure:"done_tasks"`
	BlockedTasks    int64 `mapstructure:"blocked_tasks"`
	OverdueTasks    int64 `mapstructure:"overdue_tasks"`
}

// ProjectMetrics summarises all projects for dashboards. Overdue projects
// are past their due date and neither completed nor archived.
type ProjectMetrics struct {
	Total       int64 `mapstructure:"total"`
	Active      int64 `mapstructure:"active"`
	Completed   int64 `mapstructure:"completed"`
	OnHold      int64 `mapstructure:"on_hold"`
	Overdue     int64 `mapstructure:"overdue"`
	AvgProgress int64 `mapstructure:"avg_progress"`
}

// CreateProjectRequest holds parameters for creating a project.
type CreateProjectRequest struct {
	Name        string
	Description *string
	Status      ProjectStatus
	Priority    Priority
	Budget      *float64
	StartDate   *time.Time
	DueDate     *time.Time
}

// Validate validates the create project request.
func (r *CreateProjectRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrValidation("project name is required")
	}
	if len(r.Name) > 255 {
		return ErrValidation("project name must be at most 255 characters")
	}
	if r.Status != "" && !r.Status.Valid() {
		return ErrValidation("invalid project status %q", string(r.Status))
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return ErrValidation("invalid priority %q", string(r.Priority))
	}
	if r.Budget != nil && *r.Budget < 0 {
		return ErrValidation("budget cannot be negative")
	}
	if r.StartDate != nil && r.DueDate != nil && r.DueDate.Before(*r.StartDate) {
		return ErrValidation("due_date must not be before start_date")
	}
	return nil
}

// UpdateProjectRequest holds partial-update parameters for a project.
type UpdateProjectRequest struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
	Priority    *Priority
	Progress    *int
	Budget      *float64
	StartDate   *time.Time
	DueDate     *time.Time
}

// Validate validates the update project request.
func (r *UpdateProjectRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrValidation("project name cannot be empty")
	}
	if r.Status != nil && !r.Status.Valid() {
		return ErrValidation("invalid project status %q", string(*r.Status))
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return ErrValidation("invalid priority %q", string(*r.Priority))
	}
	if r.Progress != nil && (*r.Progress < 0 || *r.Progress > 100) {
		return ErrValidation("progress must be between 0 and 100")
	}
	if r.Budget != nil && *r.Budget < 0 {
		return ErrValidation("budget cannot be negative")
	}
	return nil
}

// AddMemberRequest holds parameters for adding a member to a project.
type AddMemberRequest struct {
	UserID string
	Role   MemberRole
}

// Validate validates the add member request.
func (r *AddMemberRequest) Validate() error {
	if !IsID(r.UserID) {
		return ErrValidation("user_id must be a valid identifier")
	}
	if r.Role != "" && !r.Role.Valid() {
		return ErrValidation("invalid member role %q", string(r.Role))
	}
	return nil
}
