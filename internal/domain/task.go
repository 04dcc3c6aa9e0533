package domain

import (
	"strings"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// TaskStatus constants.
const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskDone, TaskBlocked:
		return true
	}
	return false
}

// MaxTagLength is the longest tag name accepted.
const MaxTagLength = 50

// Task is a unit of work inside a project.
type Task struct {
	ID             string     `mapstructure:"id"`
	Title          string     `mapstructure:"title"`
	Description    *string    `mapstructure:"description"`
	Status         TaskStatus `mapstructure:"status"`
	Priority       Priority   `mapstructure:"priority"`
	ProjectID      string     `mapstructure:"project_id"`
	AssignedTo     *string    `mapstructure:"assigned_to"`
	CreatedBy      *string    `mapstructure:"created_by"`
	ParentTaskID   *string    `mapstructure:"parent_task_id"`
	EstimatedHours *float64   `mapstructure:"estimated_hours"`
	ActualHours    *float64   `mapstructure:"actual_hours"`
	DueDate        *time.Time `mapstructure:"due_date"`
	CompletedAt    *time.Time `mapstructure:"completed_at"`
	CreatedAt      time.Time  `mapstructure:"created_at"`
	UpdatedAt      time.Time  `mapstructure:"updated_at"`
}

// TaskDetail is a task decorated with related names and counts. Tags are
// loaded separately and are not part of the row projection.
type TaskDetail struct {
	Task           `mapstructure:",squash"`
	ProjectName    *string  `mapstructure:"project_name"`
	AssigneeName   *string  `mapstructure:"assignee_name"`
	AssigneeAvatar *string  `mapstructure:"assignee_avatar"`
	CreatorName    *string  `mapstructure:"creator_name"`
	CommentCount   int64    `mapstructure:"comment_count"`
	Tags           []string `mapstructure:"-"`
}

// Comment is a note left on a task.
type Comment struct {
	ID        string    `mapstructure:"id"`
	TaskID    string    `mapstructure:"task_id"`
	UserID    *string   `mapstructure:"user_id"`
	UserName  *string   `mapstructure:"user_name"`
	Content   string    `mapstructure:"content"`
	CreatedAt time.Time `mapstructure:"created_at"`
	UpdatedAt time.Time `mapstructure:"updated_at"`
}

// TaskMetrics summarises tasks across all projects for dashboards.
type TaskMetrics struct {
	TotalTasks      int64 `mapstructure:"total_tasks"`
	TodoTasks       int64 `mapstructure:"todo_tasks"`
	InProgressTasks int64 `mapstructure:"in_progress_tasks"`
	ReviewTasks     int64 `mapstructure:"review_tasks"`
	DoneTasks       int64 `mapstructure:"done_tasks"`
	BlockedTasks    int64 `mapstructure:"blocked_tasks"`
	OverdueTasks    int64 `mapstructure:"overdue_tasks"`
}

// CreateTaskRequest holds parameters for creating a task.
type CreateTaskRequest struct {
	Title          string
	Description    *string
	Status         TaskStatus
	Priority       Priority
	ProjectID      string
	AssignedTo     *string
	ParentTaskID   *string
	EstimatedHours *float64
	DueDate        *time.Time
	Tags           []string
}

// Validate validates the create task request.
func (r *CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrValidation("task title is required")
	}
	if len(r.Title) > 255 {
		return ErrValidation("task title must be at most 255 characters")
	}
	if !IsID(r.ProjectID) {
		return ErrValidation("project_id must be a valid identifier")
	}
	if r.Status != "" && !r.Status.Valid() {
		return ErrValidation("invalid task status %q", string(r.Status))
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return ErrValidation("invalid priority %q", string(r.Priority))
	}
	if r.AssignedTo != nil && !IsID(*r.AssignedTo) {
		return ErrValidation("assigned_to must be a valid identifier")
	}
	if r.ParentTaskID != nil && !IsID(*r.ParentTaskID) {
		return ErrValidation("parent_task_id must be a valid identifier")
	}
	if r.EstimatedHours != nil && *r.EstimatedHours < 0 {
		return ErrValidation("estimated_hours cannot be negative")
	}
	return ValidateTags(r.Tags)
}

// UpdateTaskRequest holds partial-update parameters for a task. A nil Tags
// leaves tags untouched; an empty non-nil slice clears them.
type UpdateTaskRequest struct {
	Title          *string
	Description    *string
	Status         *TaskStatus
	Priority       *Priority
	AssignedTo     *string
	EstimatedHours *float64
	ActualHours    *float64
	DueDate        *time.Time
	Tags           []string
}

// Validate validates the update task request.
func (r *UpdateTaskRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return ErrValidation("task title cannot be empty")
	}
	if r.Status != nil && !r.Status.Valid() {
		return ErrValidation("invalid task status %q", string(*r.Status))
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return ErrValidation("invalid priority %q", string(*r.Priority))
	}
	if r.AssignedTo != nil && *r.AssignedTo != "" && !IsID(*r.AssignedTo) {
		return ErrValidation("assigned_to must be a valid identifier")
	}
	if r.EstimatedHours != nil && *r.EstimatedHours < 0 {
		return ErrValidation("estimated_hours cannot be negative")
	}
	if r.ActualHours != nil && *r.ActualHours < 0 {
		return ErrValidation("actual_hours cannot be negative")
	}
	return ValidateTags(r.Tags)
}

// ValidateTags checks tag names for length and emptiness.
func ValidateTags(tags []string) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return ErrValidation("tag names cannot be empty")
		}
		if len(tag) > MaxTagLength {
			return ErrValidation("tag %q exceeds %d characters", tag, MaxTagLength)
		}
	}
	return nil
}

// CreateCommentRequest holds parameters for commenting on a task.
type CreateCommentRequest struct {
	Content string
}

// Validate validates the create comment request.
func (r *CreateCommentRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return ErrValidation("comment content is required")
	}
	return nil
}
