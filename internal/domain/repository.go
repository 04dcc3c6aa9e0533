package domain

import (
	"context"
	"time"
)

// Lookups by id return (nil, nil) when the row does not exist. Update methods
// do the same when no row matches; Delete reports whether a row was removed.

// UserRepository provides CRUD and lookup operations for users.
type UserRepository interface {
	Create(ctx context.Context, fields Fields) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, fields Fields) (*User, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]User, int64, error)
	UpdateStatus(ctx context.Context, id string, status UserStatus) (*User, error)
	TouchLastLogin(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) (*User, error)
	Metrics(ctx context.Context) (*TeamMetrics, error)
}

// ProjectRepository provides CRUD, membership, and statistics for projects.
type ProjectRepository interface {
	Create(ctx context.Context, fields Fields) (*Project, error)
	CreateWithOwner(ctx context.Context, fields Fields, ownerID string) (*Project, error)
	GetByID(ctx context.Context, id string) (*Project, error)
	GetSummary(ctx context.Context, id string) (*ProjectSummary, error)
	Update(ctx context.Context, id string, fields Fields) (*Project, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Project, int64, error)
	ListSummaries(ctx context.Context, filter ListFilter) ([]ProjectSummary, int64, error)
	Archive(ctx context.Context, id string) (*Project, error)
	Stats(ctx context.Context, id string) (*ProjectStats, error)
	CountIncompleteTasks(ctx context.Context, id string) (int64, error)
	AddMember(ctx context.Context, projectID, userID string, role MemberRole) (*ProjectMember, error)
	RemoveMember(ctx context.Context, projectID, userID string) (bool, error)
	ListMembers(ctx context.Context, projectID string) ([]ProjectMember, error)
	Metrics(ctx context.Context) (*ProjectMetrics, error)
}

// TaskRepository provides CRUD, tags, comments, and dashboard reads for tasks.
type TaskRepository interface {
	Create(ctx context.Context, fields Fields) (*Task, error)
	CreateWithTags(ctx context.Context, fields Fields, tags []string) (*Task, error)
	GetByID(ctx context.Context, id string) (*Task, error)
	GetDetail(ctx context.Context, id string) (*TaskDetail, error)
	Update(ctx context.Context, id string, fields Fields) (*Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Task, int64, error)
	ListDetailed(ctx context.Context, filter ListFilter) ([]TaskDetail, int64, error)
	SetTags(ctx context.Context, taskID string, tags []string) error
	Tags(ctx context.Context, taskID string) ([]string, error)
	AddComment(ctx context.Context, taskID string, userID *string, content string) (*Comment, error)
	Comments(ctx context.Context, taskID string) ([]Comment, error)
	Upcoming(ctx context.Context, within time.Duration, assignee *string) ([]TaskDetail, error)
	Metrics(ctx context.Context) (*TaskMetrics, error)
}

// ActivityRepository provides operations for activity log entries.
type ActivityRepository interface {
	Insert(ctx context.Context, e *ActivityEntry) error
	List(ctx context.Context, filter ListFilter) ([]ActivityEntry, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
