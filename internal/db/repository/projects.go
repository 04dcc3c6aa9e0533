package repository

import (
	"context"
	"database/sql"
	"fmt"

	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/db/store"
	"avencia-pm/internal/domain"
)

var projectFilters = map[string]store.Filter{
	"status":     {Column: "p.status"},
	"priority":   {Column: "p.priority"},
	"created_by": {Column: "p.created_by"},
	"member":     {Expr: "EXISTS (SELECT 1 FROM project_members pf WHERE pf.project_id = p.id AND pf.user_id = %s)"},
}

var projectStrategy = store.Strategy{
	Table:      "projects",
	Alias:      "p",
	Searchable: []string{"p.name", "p.description"},
	Filters:    projectFilters,
	Sort: predicate.Sort{
		Allowed: map[string]string{
			"name":       "p.name",
			"status":     "p.status",
			"priority":   "p.priority",
			"progress":   "p.progress",
			"due_date":   "p.due_date",
			"created_at": "p.created_at",
			"updated_at": "p.updated_at",
		},
		Default:  "created_at",
		TieBreak: "p.id",
	},
	Projection: &store.Projection{
		Columns: `p.*, cu.name AS created_by_name,
			(SELECT COUNT(*) FROM project_members pm WHERE pm.project_id = p.id) AS member_count,
			(SELECT COUNT(*) FROM tasks pt WHERE pt.project_id = p.id) AS task_count`,
		Joins: "LEFT JOIN users cu ON cu.id = p.created_by",
	},
	Additional: func(b *predicate.Builder, filters map[string]any) {
		store.ApplyFilters(b, projectFilters, filters)
		if archived, ok := boolFilter(filters["archived"]); ok {
			if archived {
				b.AddRaw("p.archived_at IS NOT NULL")
			} else {
				b.AddRaw("p.archived_at IS NULL")
			}
		}
	},
}.DefaultTimestamps()

var memberStrategy = store.Strategy{
	Table:           "project_members",
	Alias:           "pm",
	CreatedAtColumn: "joined_at",
	Projection: &store.Projection{
		Columns: "pm.*, mu.name AS user_name, mu.email AS user_email, mu.avatar AS user_avatar",
		Joins:   "JOIN users mu ON mu.id = pm.user_id",
	},
}

const taskCountsColumns = `COUNT(*) AS total_tasks,
	COUNT(CASE WHEN t.status = 'todo' THEN 1 END) AS todo_tasks,
	COUNT(CASE WHEN t.status = 'in-progress' THEN 1 END) AS in_progress_tasks,
	COUNT(CASE WHEN t.status = 'review' THEN 1 END) AS review_tasks,
	COUNT(CASE WHEN t.status = 'done' THEN 1 END) AS done_tasks,
	COUNT(CASE WHEN t.status = 'blocked' THEN 1 END) AS blocked_tasks,
	COUNT(CASE WHEN t.due_date < %s AND t.status <> 'done' THEN 1 END) AS overdue_tasks`

const projectMetricsColumns = `COUNT(*) AS total,
	COUNT(CASE WHEN p.status = 'active' THEN 1 END) AS active,
	COUNT(CASE WHEN p.status = 'completed' THEN 1 END) AS completed,
	COUNT(CASE WHEN p.status = 'on-hold' THEN 1 END) AS on_hold,
	COUNT(CASE WHEN p.due_date < %s AND p.status NOT IN ('completed', 'archived') THEN 1 END) AS overdue,
	CAST(COALESCE(ROUND(AVG(p.progress)), 0) AS INTEGER) AS avg_progress`

// ProjectRepo implements domain.ProjectRepository.
type ProjectRepo struct {
	store   *store.Store
	members *store.Store
}

var _ domain.ProjectRepository = (*ProjectRepo)(nil)

// NewProjectRepo creates a ProjectRepo writing through db.
func NewProjectRepo(db *sql.DB, dialect predicate.Dialect, opts ...store.Option) *ProjectRepo {
	return &ProjectRepo{
		store:   store.New(db, dialect, projectStrategy, opts...),
		members: store.New(db, dialect, memberStrategy, opts...),
	}
}

// Create inserts a new project.
func (r *ProjectRepo) Create(ctx context.Context, fields domain.Fields) (*domain.Project, error) {
	rec, err := r.store.Create(ctx, store.Record(fields))
	if err != nil {
		return nil, err
	}
	return decode[domain.Project](rec)
}

// CreateWithOwner inserts the project and enrols ownerID as its owner in one
// transaction.
func (r *ProjectRepo) CreateWithOwner(ctx context.Context, fields domain.Fields, ownerID string) (*domain.Project, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var rec store.Record
	err := r.store.InTx(ctx, "create project with owner", func(tx *sql.Tx) error {
		var err error
		if rec, err = r.store.CreateTx(ctx, tx, store.Record(fields)); err != nil {
			return err
		}
		_, err = r.members.CreateTx(ctx, tx, store.Record{
			"project_id": rec.ID(),
			"user_id":    ownerID,
			"role":       domain.MemberOwner,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return decode[domain.Project](rec)
}

// GetByID returns the project or nil when it does not exist.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.Project](r.store.FindByID(ctx, id))
}

// GetSummary returns the project with creator name and counts.
func (r *ProjectRepo) GetSummary(ctx context.Context, id string) (*domain.ProjectSummary, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.ProjectSummary](r.store.FindProjected(ctx, id))
}

// Update applies a partial update. It returns nil when the project does not exist.
func (r *ProjectRepo) Update(ctx context.Context, id string, fields domain.Fields) (*domain.Project, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.Project](r.store.Update(ctx, id, store.Record(fields)))
}

// Delete removes the project together with its tasks and members.
func (r *ProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return r.store.Delete(ctx, id)
}

// List returns a filtered page of projects.
func (r *ProjectRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.Project, int64, error) {
	return decodePage[domain.Project](r.store.List(ctx, filter))
}

// ListSummaries is List with creator names and counts.
func (r *ProjectRepo) ListSummaries(ctx context.Context, filter domain.ListFilter) ([]domain.ProjectSummary, int64, error) {
	return decodePage[domain.ProjectSummary](r.store.ListProjected(ctx, filter))
}

// Archive moves the project to the archived status and stamps archived_at.
func (r *ProjectRepo) Archive(ctx context.Context, id string) (*domain.Project, error) {
	return r.Update(ctx, id, domain.Fields{
		"status":      domain.ProjectArchived,
		"archived_at": r.store.Now(),
	})
}

// Stats counts the project's tasks by status. Overdue tasks are past their
// due date and not done.
func (r *ProjectRepo) Stats(ctx context.Context, id string) (*domain.ProjectStats, error) {
	if !validID(id) {
		return &domain.ProjectStats{}, nil
	}
	b := predicate.New(r.store.Dialect())
	now := b.Arg(r.store.Now())
	b.Add("t.project_id", predicate.Eq, id)
	where := b.Build()

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	query := "SELECT " + fmt.Sprintf(taskCountsColumns, now) + " FROM tasks t" + where.Where()
	stats, err := decodeFound[domain.ProjectStats](store.QueryRecord(ctx, r.store.ReadDB(), "project stats", query, where.Args...))
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &domain.ProjectStats{}
	}
	return stats, nil
}

// Metrics counts every project by status for dashboards.
func (r *ProjectRepo) Metrics(ctx context.Context) (*domain.ProjectMetrics, error) {
	b := predicate.New(r.store.Dialect())
	now := b.Arg(r.store.Now())

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	m, err := decodeFound[domain.ProjectMetrics](store.QueryRecord(ctx, r.store.ReadDB(), "project metrics",
		"SELECT "+fmt.Sprintf(projectMetricsColumns, now)+" FROM projects p", b.Args()...))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = &domain.ProjectMetrics{}
	}
	return m, nil
}

// CountIncompleteTasks counts the project's tasks that are not done.
func (r *ProjectRepo) CountIncompleteTasks(ctx context.Context, id string) (int64, error) {
	if !validID(id) {
		return 0, nil
	}
	b := predicate.New(r.store.Dialect())
	b.Add("t.project_id", predicate.Eq, id)
	b.Add("t.status", predicate.NotEq, domain.TaskDone)
	where := b.Build()

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	return queryCount(ctx, r.store.ReadDB(), "count incomplete tasks",
		"SELECT COUNT(*) AS n FROM tasks t"+where.Where(), where.Args...)
}

// AddMember adds userID to the project. A user can be a member once; a
// second add fails with a unique-constraint StorageError.
func (r *ProjectRepo) AddMember(ctx context.Context, projectID, userID string, role domain.MemberRole) (*domain.ProjectMember, error) {
	fields := store.Record{"project_id": projectID, "user_id": userID}
	if role != "" {
		fields["role"] = role
	}
	rec, err := r.members.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	return decodeFound[domain.ProjectMember](r.members.FindProjected(ctx, rec.ID()))
}

// RemoveMember removes userID from the project.
func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID, userID string) (bool, error) {
	if !validID(projectID) || !validID(userID) {
		return false, nil
	}
	b := predicate.New(r.store.Dialect())
	b.Add("project_id", predicate.Eq, projectID)
	b.Add("user_id", predicate.Eq, userID)
	where := b.Build()

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	n, err := store.Exec(ctx, r.store.DB(), "remove project member",
		"DELETE FROM project_members"+where.Where(), where.Args...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListMembers returns the project's members in join order.
func (r *ProjectRepo) ListMembers(ctx context.Context, projectID string) ([]domain.ProjectMember, error) {
	if !validID(projectID) {
		return []domain.ProjectMember{}, nil
	}
	p := memberStrategy.Projection
	b := predicate.New(r.store.Dialect())
	b.Add("pm.project_id", predicate.Eq, projectID)
	where := b.Build()

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	recs, err := store.QueryRecords(ctx, r.store.ReadDB(), "list project members",
		"SELECT "+p.Columns+" FROM project_members pm "+p.Joins+where.Where()+" ORDER BY pm.joined_at ASC, pm.id ASC",
		where.Args...)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.ProjectMember](recs)
}
