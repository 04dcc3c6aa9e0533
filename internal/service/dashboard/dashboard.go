// Package dashboard assembles the home-screen overview from the project,
// task, user and activity repositories.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"avencia-pm/internal/domain"
)

const (
	// RecentProjectsLimit is how many recently updated projects are shown.
	RecentProjectsLimit = 5
	// MyProjectsLimit caps the caller's project list.
	MyProjectsLimit = 20
	// RecentActivityLimit is how many activity entries are shown.
	RecentActivityLimit = 10
	// UpcomingWithin is the deadline window for the caller's open tasks.
	UpcomingWithin = 7 * 24 * time.Hour
)

// Service builds dashboards.
type Service struct {
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	users    domain.UserRepository
	activity domain.ActivityRepository
}

// NewService creates a dashboard Service.
func NewService(projects domain.ProjectRepository, tasks domain.TaskRepository, users domain.UserRepository, activityLog domain.ActivityRepository) *Service {
	return &Service{projects: projects, tasks: tasks, users: users, activity: activityLog}
}

// Get returns the dashboard for the caller in ctx. The caller's projects and
// upcoming tasks are scoped to them; a trusted caller with no principal gets
// no personal projects and every assignee's deadlines.
func (s *Service) Get(ctx context.Context) (*domain.Dashboard, error) {
	var self *string
	if p, ok := domain.PrincipalFromContext(ctx); ok && domain.IsID(p.UserID) {
		self = &p.UserID
	}

	d := &domain.Dashboard{
		RecentProjects: []domain.ProjectSummary{},
		MyProjects:     []domain.ProjectSummary{},
		UpcomingTasks:  []domain.TaskDetail{},
		RecentActivity: []domain.ActivityEntry{},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.projects.Metrics(gctx)
		if err != nil {
			return fmt.Errorf("project metrics: %w", err)
		}
		d.Projects = *m
		return nil
	})
	g.Go(func() error {
		m, err := s.tasks.Metrics(gctx)
		if err != nil {
			return fmt.Errorf("task metrics: %w", err)
		}
		d.Tasks = *m
		return nil
	})
	g.Go(func() error {
		m, err := s.users.Metrics(gctx)
		if err != nil {
			return fmt.Errorf("team metrics: %w", err)
		}
		d.Team = *m
		return nil
	})
	g.Go(func() error {
		items, _, err := s.projects.ListSummaries(gctx, domain.ListFilter{
			Limit:     RecentProjectsLimit,
			SortBy:    "updated_at",
			SortOrder: "desc",
		})
		if err != nil {
			return fmt.Errorf("recent projects: %w", err)
		}
		d.RecentProjects = items
		return nil
	})
	if self != nil {
		g.Go(func() error {
			items, _, err := s.projects.ListSummaries(gctx, domain.ListFilter{
				Filters:   map[string]any{"member": *self},
				Limit:     MyProjectsLimit,
				SortBy:    "updated_at",
				SortOrder: "desc",
			})
			if err != nil {
				return fmt.Errorf("my projects: %w", err)
			}
			d.MyProjects = items
			return nil
		})
	}
	g.Go(func() error {
		items, err := s.tasks.Upcoming(gctx, UpcomingWithin, self)
		if err != nil {
			return fmt.Errorf("upcoming tasks: %w", err)
		}
		d.UpcomingTasks = items
		return nil
	})
	g.Go(func() error {
		items, _, err := s.activity.List(gctx, domain.ListFilter{Limit: RecentActivityLimit})
		if err != nil {
			return fmt.Errorf("recent activity: %w", err)
		}
		d.RecentActivity = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
