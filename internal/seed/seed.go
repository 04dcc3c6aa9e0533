// Package seed loads demo users, projects and tasks from YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"avencia-pm/internal/domain"
	"avencia-pm/internal/service/project"
	"avencia-pm/internal/service/task"
	"avencia-pm/internal/service/user"
)

//go:embed seed.yaml
var defaultSeed []byte

// File is the seed document.
type File struct {
	Users    []User    `yaml:"users"`
	Projects []Project `yaml:"projects"`
}

// User is a seeded account.
type User struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
	Title      string `yaml:"title"`
	Timezone   string `yaml:"timezone"`
}

// Project is a seeded project with its members and tasks. Owner and member
// entries refer to users by email.
type Project struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	Priority    string   `yaml:"priority"`
	Owner       string   `yaml:"owner"`
	Budget      *float64 `yaml:"budget"`
	StartDate   string   `yaml:"start_date"`
	DueDate     string   `yaml:"due_date"`
	Members     []Member `yaml:"members"`
	Tasks       []Task   `yaml:"tasks"`
}

// Member is a project membership.
type Member struct {
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// Task is a seeded task. DueInDays is relative to the time of seeding so
// the demo always has upcoming and overdue work.
type Task struct {
	Title          string    `yaml:"title"`
	Description    string    `yaml:"description"`
	Status         string    `yaml:"status"`
	Priority       string    `yaml:"priority"`
	Assignee       string    `yaml:"assignee"`
	EstimatedHours *float64  `yaml:"estimated_hours"`
	ActualHours    *float64  `yaml:"actual_hours"`
	DueInDays      *int      `yaml:"due_in_days"`
	Tags           []string  `yaml:"tags"`
	Comments       []Comment `yaml:"comments"`
}

// Comment is a seeded task comment.
type Comment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// Result counts what a seed run created.
type Result struct {
	Users    int
	Projects int
	Tasks    int
	Comments int
	Skipped  bool
}

// Default returns the embedded demo seed.
func Default() (*File, error) {
	return Parse(bytes.NewReader(defaultSeed))
}

// LoadFile reads a seed file from disk. An empty path returns Default.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Seeder writes a seed document through the services so validation and
// activity logging apply as for API calls.
type Seeder struct {
	users    *user.Service
	projects *project.Service
	tasks    *task.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewSeeder creates a Seeder.
func NewSeeder(users *user.Service, projects *project.Service, tasks *task.Service, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Seeder{users: users, projects: projects, tasks: tasks, logger: logger, now: time.Now}
}

// Run loads f. It does nothing when any user already exists unless force is
// set.
func (s *Seeder) Run(ctx context.Context, f *File, force bool) (Result, error) {
	var res Result

	if !force {
		existing, err := s.users.List(ctx, domain.ListFilter{Limit: 1})
		if err != nil {
			return res, fmt.Errorf("check existing users: %w", err)
		}
		if existing.Total > 0 {
			s.logger.InfoContext(ctx, "database already has users, skipping seed", "users", existing.Total)
			res.Skipped = true
			return res, nil
		}
	}

	byEmail := make(map[string]domain.ContextPrincipal, len(f.Users))
	for _, u := range f.Users {
		created, err := s.users.Create(ctx, domain.CreateUserRequest{
			Name:       u.Name,
			Email:      u.Email,
			Password:   u.Password,
			Role:       domain.UserRole(u.Role),
			Department: optional(u.Department),
			Title:      optional(u.Title),
			Timezone:   optional(u.Timezone),
		})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		byEmail[strings.ToLower(created.Email)] = domain.ContextPrincipal{
			UserID: created.ID, Email: created.Email, Role: created.Role,
		}
		res.Users++
	}
	lookup := func(email string) (domain.ContextPrincipal, error) {
		p, ok := byEmail[strings.ToLower(email)]
		if !ok {
			return p, fmt.Errorf("unknown user %q", email)
		}
		return p, nil
	}

	for _, p := range f.Projects {
		if err := s.seedProject(ctx, p, lookup, &res); err != nil {
			return res, fmt.Errorf("seed project %s: %w", p.Name, err)
		}
	}

	s.logger.InfoContext(ctx, "seed complete",
		"users", res.Users, "projects", res.Projects, "tasks", res.Tasks, "comments", res.Comments)
	return res, nil
}

func (s *Seeder) seedProject(ctx context.Context, p Project, lookup func(string) (domain.ContextPrincipal, error), res *Result) error {
	start, err := parseDate(p.StartDate)
	if err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	due, err := parseDate(p.DueDate)
	if err != nil {
		return fmt.Errorf("due_date: %w", err)
	}

	// Acting as the owner makes them creator and owner member.
	owner, err := lookup(p.Owner)
	if err != nil {
		return err
	}
	ownerCtx := domain.WithPrincipal(ctx, owner)

	created, err := s.projects.Create(ownerCtx, domain.CreateProjectRequest{
		Name:        p.Name,
		Description: optional(p.Description),
		Status:      domain.ProjectStatus(p.Status),
		Priority:    domain.Priority(p.Priority),
		Budget:      p.Budget,
		StartDate:   start,
		DueDate:     due,
	})
	if err != nil {
		return err
	}
	res.Projects++

	for _, m := range p.Members {
		member, err := lookup(m.Email)
		if err != nil {
			return err
		}
		if _, err := s.projects.AddMember(ownerCtx, created.ID, domain.AddMemberRequest{
			UserID: member.UserID,
			Role:   domain.MemberRole(m.Role),
		}); err != nil {
			return fmt.Errorf("add member %s: %w", m.Email, err)
		}
	}

	for _, t := range p.Tasks {
		req := domain.CreateTaskRequest{
			Title:          t.Title,
			Description:    optional(t.Description),
			Status:         domain.TaskStatus(t.Status),
			Priority:       domain.Priority(t.Priority),
			ProjectID:      created.ID,
			EstimatedHours: t.EstimatedHours,
			Tags:           t.Tags,
		}
		if t.Assignee != "" {
			a, err := lookup(t.Assignee)
			if err != nil {
				return err
			}
			req.AssignedTo = &a.UserID
		}
		if t.DueInDays != nil {
			d := s.now().UTC().Truncate(time.Hour).AddDate(0, 0, *t.DueInDays)
			req.DueDate = &d
		}

		tk, err := s.tasks.Create(ownerCtx, req)
		if err != nil {
			return fmt.Errorf("task %q: %w", t.Title, err)
		}
		if t.ActualHours != nil {
			if _, err := s.tasks.Update(ownerCtx, tk.ID, domain.UpdateTaskRequest{ActualHours: t.ActualHours}); err != nil {
				return fmt.Errorf("task %q: %w", t.Title, err)
			}
		}
		res.Tasks++

		for _, c := range t.Comments {
			author, err := lookup(c.Author)
			if err != nil {
				return err
			}
			if _, err := s.tasks.AddComment(domain.WithPrincipal(ctx, author), tk.ID, domain.CreateCommentRequest{Content: c.Content}); err != nil {
				return fmt.Errorf("comment on %q: %w", t.Title, err)
			}
			res.Comments++
		}
	}
	return nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
