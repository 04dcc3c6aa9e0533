// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"
	"time"

	"avencia-pm/internal/domain"
)

// === User Repository Mock ===

// MockUserRepo implements domain.UserRepository for testing.
type MockUserRepo struct {
	CreateFn         func(ctx context.Context, fields domain.Fields) (*domain.User, error)
	GetByIDFn        func(ctx context.Context, id string) (*domain.User, error)
	GetByEmailFn     func(ctx context.Context, email string) (*domain.User, error)
	UpdateFn         func(ctx context.Context, id string, fields domain.Fields) (*domain.User, error)
	DeleteFn         func(ctx context.Context, id string) (bool, error)
	ListFn           func(ctx context.Context, filter domain.ListFilter) ([]domain.User, int64, error)
	UpdateStatusFn   func(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error)
	TouchLastLoginFn func(ctx context.Context, id string) error
	DeactivateFn     func(ctx context.Context, id string) (*domain.User, error)
	MetricsFn        func(ctx context.Context) (*domain.TeamMetrics, error)
}

// Create implements the interface method for testing.
func (m *MockUserRepo) Create(ctx context.Context, fields domain.Fields) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, fields)
	}
	panic("unexpected call to MockUserRepo.Create")
}

// Metrics implements the interface method for testing.
func (m *MockUserRepo) Metrics(ctx context.Context) (*domain.TeamMetrics, error) {
	if m.MetricsFn != nil {
		return m.MetricsFn(ctx)
	}
	panic("unexpected call to MockUserRepo.Metrics")
}

// GetByID implements the interface method for testing.
func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockUserRepo.GetByID")
}

// GetByEmail implements the interface method for testing.
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	panic("unexpected call to MockUserRepo.GetByEmail")
}

// Update implements the interface method for testing.
func (m *MockUserRepo) Update(ctx context.Context, id string, fields domain.Fields) (*domain.User, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, fields)
	}
	panic("unexpected call to MockUserRepo.Update")
}

// Delete implements the interface method for testing.
func (m *MockUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockUserRepo.Delete")
}

// List implements the interface method for testing.
func (m *MockUserRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.User, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockUserRepo.List")
}

// UpdateStatus implements the interface method for testing.
func (m *MockUserRepo) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	panic("unexpected call to MockUserRepo.UpdateStatus")
}

// TouchLastLogin implements the interface method for testing.
func (m *MockUserRepo) TouchLastLogin(ctx context.Context, id string) error {
	if m.TouchLastLoginFn != nil {
		return m.TouchLastLoginFn(ctx, id)
	}
	panic("unexpected call to MockUserRepo.TouchLastLogin")
}

// Deactivate implements the interface method for testing.
func (m *MockUserRepo) Deactivate(ctx context.Context, id string) (*domain.User, error) {
	if m.DeactivateFn != nil {
		return m.DeactivateFn(ctx, id)
	}
	panic("unexpected call to MockUserRepo.Deactivate")
}

// === Project Repository Mock ===

// MockProjectRepo implements domain.ProjectRepository for testing.
type MockProjectRepo struct {
	CreateFn               func(ctx context.Context, fields domain.Fields) (*domain.Project, error)
	CreateWithOwnerFn      func(ctx context.Context, fields domain.Fields, ownerID string) (*domain.Project, error)
	GetByIDFn              func(ctx context.Context, id string) (*domain.Project, error)
	GetSummaryFn           func(ctx context.Context, id string) (*domain.ProjectSummary, error)
	UpdateFn               func(ctx context.Context, id string, fields domain.Fields) (*domain.Project, error)
	DeleteFn               func(ctx context.Context, id string) (bool, error)
	ListFn                 func(ctx context.Context, filter domain.ListFilter) ([]domain.Project, int64, error)
	ListSummariesFn        func(ctx context.Context, filter domain.ListFilter) ([]domain.ProjectSummary, int64, error)
	ArchiveFn              func(ctx context.Context, id string) (*domain.Project, error)
	StatsFn                func(ctx context.Context, id string) (*domain.ProjectStats, error)
	CountIncompleteTasksFn func(ctx context.Context, id string) (int64, error)
	AddMemberFn            func(ctx context.Context, projectID, userID string, role domain.MemberRole) (*domain.ProjectMember, error)
	RemoveMemberFn         func(ctx context.Context, projectID, userID string) (bool, error)
	ListMembersFn          func(ctx context.Context, projectID string) ([]domain.ProjectMember, error)
	MetricsFn              func(ctx context.Context) (*domain.ProjectMetrics, error)
}

// Create implements the interface method for testing.
func (m *MockProjectRepo) Create(ctx context.Context, fields domain.Fields) (*domain.Project, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, fields)
	}
	panic("unexpected call to MockProjectRepo.Create")
}

// CreateWithOwner implements the interface method for testing.
func (m *MockProjectRepo) CreateWithOwner(ctx context.Context, fields domain.Fields, ownerID string) (*domain.Project, error) {
	if m.CreateWithOwnerFn != nil {
		return m.CreateWithOwnerFn(ctx, fields, ownerID)
	}
	panic("unexpected call to MockProjectRepo.CreateWithOwner")
}

// Metrics implements the interface method for testing.
func (m *MockProjectRepo) Metrics(ctx context.Context) (*domain.ProjectMetrics, error) {
	if m.MetricsFn != nil {
		return m.MetricsFn(ctx)
	}
	panic("unexpected call to MockProjectRepo.Metrics")
}

// GetByID implements the interface method for testing.
func (m *MockProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockProjectRepo.GetByID")
}

// GetSummary implements the interface method for testing.
func (m *MockProjectRepo) GetSummary(ctx context.Context, id string) (*domain.ProjectSummary, error) {
	if m.GetSummaryFn != nil {
		return m.GetSummaryFn(ctx, id)
	}
	panic("unexpected call to MockProjectRepo.GetSummary")
}

// Update implements the interface method for testing.
func (m *MockProjectRepo) Update(ctx context.Context, id string, fields domain.Fields) (*domain.Project, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, fields)
	}
	panic("unexpected call to MockProjectRepo.Update")
}

// Delete implements the interface method for testing.
func (m *MockProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockProjectRepo.Delete")
}

// List implements the interface method for testing.
func (m *MockProjectRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.Project, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockProjectRepo.List")
}

// ListSummaries implements the interface method for testing.
func (m *MockProjectRepo) ListSummaries(ctx context.Context, filter domain.ListFilter) ([]domain.ProjectSummary, int64, error) {
	if m.ListSummariesFn != nil {
		return m.ListSummariesFn(ctx, filter)
	}
	panic("unexpected call to MockProjectRepo.ListSummaries")
}

// Archive implements the interface method for testing.
func (m *MockProjectRepo) Archive(ctx context.Context, id string) (*domain.Project, error) {
	if m.ArchiveFn != nil {
		return m.ArchiveFn(ctx, id)
	}
	panic("unexpected call to MockProjectRepo.Archive")
}

// Stats implements the interface method for testing.
func (m *MockProjectRepo) Stats(ctx context.Context, id string) (*domain.ProjectStats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx, id)
	}
	panic("unexpected call to MockProjectRepo.Stats")
}

// CountIncompleteTasks implements the interface method for testing.
func (m *MockProjectRepo) CountIncompleteTasks(ctx context.Context, id string) (int64, error) {
	if m.CountIncompleteTasksFn != nil {
		return m.CountIncompleteTasksFn(ctx, id)
	}
	panic("unexpected call to MockProjectRepo.CountIncompleteTasks")
}

// AddMember implements the interface method for testing.
func (m *MockProjectRepo) AddMember(ctx context.Context, projectID, userID string, role domain.MemberRole) (*domain.ProjectMember, error) {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(ctx, projectID, userID, role)
	}
	panic("unexpected call to MockProjectRepo.AddMember")
}

// RemoveMember implements the interface method for testing.
func (m *MockProjectRepo) RemoveMember(ctx context.Context, projectID, userID string) (bool, error) {
	if m.RemoveMemberFn != nil {
		return m.RemoveMemberFn(ctx, projectID, userID)
	}
	panic("unexpected call to MockProjectRepo.RemoveMember")
}

// ListMembers implements the interface method for testing.
func (m *MockProjectRepo) ListMembers(ctx context.Context, projectID string) ([]domain.ProjectMember, error) {
	if m.ListMembersFn != nil {
		return m.ListMembersFn(ctx, projectID)
	}
	panic("unexpected call to MockProjectRepo.ListMembers")
}

// === Task Repository Mock ===

// MockTaskRepo implements domain.TaskRepository for testing.
type MockTaskRepo struct {
	CreateFn         func(ctx context.Context, fields domain.Fields) (*domain.Task, error)
	CreateWithTagsFn func(ctx context.Context, fields domain.Fields, tags []string) (*domain.Task, error)
	GetByIDFn        func(ctx context.Context, id string) (*domain.Task, error)
	GetDetailFn      func(ctx context.Context, id string) (*domain.TaskDetail, error)
	UpdateFn         func(ctx context.Context, id string, fields domain.Fields) (*domain.Task, error)
	DeleteFn         func(ctx context.Context, id string) (bool, error)
	ListFn           func(ctx context.Context, filter domain.ListFilter) ([]domain.Task, int64, error)
	ListDetailedFn   func(ctx context.Context, filter domain.ListFilter) ([]domain.TaskDetail, int64, error)
	SetTagsFn        func(ctx context.Context, taskID string, tags []string) error
	TagsFn           func(ctx context.Context, taskID string) ([]string, error)
	AddCommentFn     func(ctx context.Context, taskID string, userID *string, content string) (*domain.Comment, error)
	CommentsFn       func(ctx context.Context, taskID string) ([]domain.Comment, error)
	UpcomingFn       func(ctx context.Context, within time.Duration, assignee *string) ([]domain.TaskDetail, error)
	MetricsFn        func(ctx context.Context) (*domain.TaskMetrics, error)
}

// Create implements the interface method for testing.
func (m *MockTaskRepo) Create(ctx context.Context, fields domain.Fields) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, fields)
	}
	panic("unexpected call to MockTaskRepo.Create")
}

// CreateWithTags implements the interface method for testing.
func (m *MockTaskRepo) CreateWithTags(ctx context.Context, fields domain.Fields, tags []string) (*domain.Task, error) {
	if m.CreateWithTagsFn != nil {
		return m.CreateWithTagsFn(ctx, fields, tags)
	}
	panic("unexpected call to MockTaskRepo.CreateWithTags")
}

// GetByID implements the interface method for testing.
func (m *MockTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockTaskRepo.GetByID")
}

// GetDetail implements the interface method for testing.
func (m *MockTaskRepo) GetDetail(ctx context.Context, id string) (*domain.TaskDetail, error) {
	if m.GetDetailFn != nil {
		return m.GetDetailFn(ctx, id)
	}
	panic("unexpected call to MockTaskRepo.GetDetail")
}

// Update implements the interface method for testing.
func (m *MockTaskRepo) Update(ctx context.Context, id string, fields domain.Fields) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, fields)
	}
	panic("unexpected call to MockTaskRepo.Update")
}

// Delete implements the interface method for testing.
func (m *MockTaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockTaskRepo.Delete")
}

// List implements the interface method for testing.
func (m *MockTaskRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.Task, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockTaskRepo.List")
}

// ListDetailed implements the interface method for testing.
func (m *MockTaskRepo) ListDetailed(ctx context.Context, filter domain.ListFilter) ([]domain.TaskDetail, int64, error) {
	if m.ListDetailedFn != nil {
		return m.ListDetailedFn(ctx, filter)
	}
	panic("unexpected call to MockTaskRepo.ListDetailed")
}

// SetTags implements the interface method for testing.
func (m *MockTaskRepo) SetTags(ctx context.Context, taskID string, tags []string) error {
	if m.SetTagsFn != nil {
		return m.SetTagsFn(ctx, taskID, tags)
	}
	panic("unexpected call to MockTaskRepo.SetTags")
}

// Tags implements the interface method for testing.
func (m *MockTaskRepo) Tags(ctx context.Context, taskID string) ([]string, error) {
	if m.TagsFn != nil {
		return m.TagsFn(ctx, taskID)
	}
	panic("unexpected call to MockTaskRepo.Tags")
}

// AddComment implements the interface method for testing.
func (m *MockTaskRepo) AddComment(ctx context.Context, taskID string, userID *string, content string) (*domain.Comment, error) {
	if m.AddCommentFn != nil {
		return m.AddCommentFn(ctx, taskID, userID, content)
	}
	panic("unexpected call to MockTaskRepo.AddComment")
}

// Comments implements the interface method for testing.
func (m *MockTaskRepo) Comments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	if m.CommentsFn != nil {
		return m.CommentsFn(ctx, taskID)
	}
	panic("unexpected call to MockTaskRepo.Comments")
}

// Upcoming implements the interface method for testing.
func (m *MockTaskRepo) Upcoming(ctx context.Context, within time.Duration, assignee *string) ([]domain.TaskDetail, error) {
	if m.UpcomingFn != nil {
		return m.UpcomingFn(ctx, within, assignee)
	}
	panic("unexpected call to MockTaskRepo.Upcoming")
}

// Metrics implements the interface method for testing.
func (m *MockTaskRepo) Metrics(ctx context.Context) (*domain.TaskMetrics, error) {
	if m.MetricsFn != nil {
		return m.MetricsFn(ctx)
	}
	panic("unexpected call to MockTaskRepo.Metrics")
}

// === Activity Repository Mock ===

// MockActivityRepo implements domain.ActivityRepository for testing. Inserted
// entries are collected for assertions; it is safe for concurrent use.
type MockActivityRepo struct {
	InsertFn       func(ctx context.Context, e *domain.ActivityEntry) error
	ListFn         func(ctx context.Context, filter domain.ListFilter) ([]domain.ActivityEntry, int64, error)
	DeleteBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)

	mu      sync.Mutex
	Entries []*domain.ActivityEntry
}

// Insert implements the interface method for testing.
func (m *MockActivityRepo) Insert(ctx context.Context, e *domain.ActivityEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return nil
}

// List implements the interface method for testing.
func (m *MockActivityRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.ActivityEntry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockActivityRepo.List")
}

// DeleteBefore implements the interface method for testing.
func (m *MockActivityRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteBeforeFn != nil {
		return m.DeleteBeforeFn(ctx, cutoff)
	}
	panic("unexpected call to MockActivityRepo.DeleteBefore")
}

// HasAction reports whether any collected entry has the given action.
func (m *MockActivityRepo) HasAction(action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

// LastEntry returns the last collected entry, or nil if none.
func (m *MockActivityRepo) LastEntry() *domain.ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// === Compile-time interface checks ===

var (
	_ domain.UserRepository     = (*MockUserRepo)(nil)
	_ domain.ProjectRepository  = (*MockProjectRepo)(nil)
	_ domain.TaskRepository     = (*MockTaskRepo)(nil)
	_ domain.ActivityRepository = (*MockActivityRepo)(nil)
)
