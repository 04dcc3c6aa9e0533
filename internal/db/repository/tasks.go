package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/db/store"
	"avencia-pm/internal/domain"
)

// upcomingLimit caps the Upcoming listing.
const upcomingLimit = 50

var taskStrategy = store.Strategy{
	Table:      "tasks",
	Alias:      "t",
	Searchable: []string{"t.title", "t.description"},
	Filters: map[string]store.Filter{
		"status":         {Column: "t.status"},
		"priority":       {Column: "t.priority"},
		"project_id":     {Column: "t.project_id"},
		"assigned_to":    {Column: "t.assigned_to"},
		"created_by":     {Column: "t.created_by"},
		"parent_task_id": {Column: "t.parent_task_id"},
		"due_from":       {Column: "t.due_date", Op: predicate.Gte},
		"due_to":         {Column: "t.due_date", Op: predicate.Lte},
		"tag":            {Expr: "EXISTS (SELECT 1 FROM task_tags tg WHERE tg.task_id = t.id AND tg.tag_name = %s)"},
	},
	Sort: predicate.Sort{
		Allowed: map[string]string{
			"title":      "t.title",
			"status":     "t.status",
			"priority":   "t.priority",
			"due_date":   "t.due_date",
			"created_at": "t.created_at",
			"updated_at": "t.updated_at",
		},
		Default:  "created_at",
		TieBreak: "t.id",
	},
	Projection: &store.Projection{
		Columns: `t.*, tp.name AS project_name, ta.name AS assignee_name, ta.avatar AS assignee_avatar,
			tc.name AS creator_name,
			(SELECT COUNT(*) FROM comments cm WHERE cm.task_id = t.id) AS comment_count`,
		Joins: `LEFT JOIN projects tp ON tp.id = t.project_id
			LEFT JOIN users ta ON ta.id = t.assigned_to
			LEFT JOIN users tc ON tc.id = t.created_by`,
	},
}.DefaultTimestamps()

var commentStrategy = store.Strategy{
	Table: "comments",
	Alias: "c",
	Projection: &store.Projection{
		Columns: "c.*, cu.name AS user_name",
		Joins:   "LEFT JOIN users cu ON cu.id = c.user_id",
	},
}.DefaultTimestamps()

// TaskRepo implements domain.TaskRepository.
type TaskRepo struct {
	store    *store.Store
	comments *store.Store
}

var _ domain.TaskRepository = (*TaskRepo)(nil)

// NewTaskRepo creates a TaskRepo writing through db.
func NewTaskRepo(db *sql.DB, dialect predicate.Dialect, opts ...store.Option) *TaskRepo {
	return &TaskRepo{
		store:    store.New(db, dialect, taskStrategy, opts...),
		comments: store.New(db, dialect, commentStrategy, opts...),
	}
}

// Create inserts a new task. Unset status and priority take the schema
// defaults (todo, medium).
func (r *TaskRepo) Create(ctx context.Context, fields domain.Fields) (*domain.Task, error) {
	rec, err := r.store.Create(ctx, store.Record(fields))
	if err != nil {
		return nil, err
	}
	return decode[domain.Task](rec)
}

// CreateWithTags inserts the task and its tags in one transaction. Neither
// is stored when either insert fails.
func (r *TaskRepo) CreateWithTags(ctx context.Context, fields domain.Fields, tags []string) (*domain.Task, error) {
	const op = "create task with tags"
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	var rec store.Record
	err := r.store.InTx(ctx, op, func(tx *sql.Tx) error {
		var err error
		if rec, err = r.store.CreateTx(ctx, tx, store.Record(fields)); err != nil {
			return err
		}
		return r.setTagsTx(ctx, tx, op, rec.ID(), tags)
	})
	if err != nil {
		return nil, err
	}
	return decode[domain.Task](rec)
}

// GetByID returns the task or nil when it does not exist.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.Task](r.store.FindByID(ctx, id))
}

// GetDetail returns the task with related names, comment count and tags.
func (r *TaskRepo) GetDetail(ctx context.Context, id string) (*domain.TaskDetail, error) {
	if !validID(id) {
		return nil, nil
	}
	detail, err := decodeFound[domain.TaskDetail](r.store.FindProjected(ctx, id))
	if err != nil || detail == nil {
		return detail, err
	}
	tags, err := r.tagsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	detail.Tags = tags[id]
	if detail.Tags == nil {
		detail.Tags = []string{}
	}
	return detail, nil
}

// Update applies a partial update. It returns nil when the task does not exist.
func (r *TaskRepo) Update(ctx context.Context, id string, fields domain.Fields) (*domain.Task, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.Task](r.store.Update(ctx, id, store.Record(fields)))
}

// Delete removes the task with its tags and comments.
func (r *TaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return r.store.Delete(ctx, id)
}

// List returns a filtered page of tasks.
func (r *TaskRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.Task, int64, error) {
	return decodePage[domain.Task](r.store.List(ctx, filter))
}

// ListDetailed is List with related names, comment counts and tags.
func (r *TaskRepo) ListDetailed(ctx context.Context, filter domain.ListFilter) ([]domain.TaskDetail, int64, error) {
	items, total, err := decodePage[domain.TaskDetail](r.store.ListProjected(ctx, filter))
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SetTags replaces the task's tags in one transaction. Duplicates and
// surrounding whitespace are dropped.
func (r *TaskRepo) SetTags(ctx context.Context, taskID string, tags []string) error {
	const op = "set task tags"
	if !validID(taskID) {
		return domain.ErrNotFound("task %s not found", taskID)
	}

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	return r.store.InTx(ctx, op, func(tx *sql.Tx) error {
		return r.setTagsTx(ctx, tx, op, taskID, tags)
	})
}

func (r *TaskRepo) setTagsTx(ctx context.Context, tx *sql.Tx, op, taskID string, tags []string) error {
	d := r.store.Dialect()
	del := predicate.New(d)
	del.Add("task_id", predicate.Eq, taskID)
	where := del.Build()
	if _, err := store.Exec(ctx, tx, op, "DELETE FROM task_tags"+where.Where(), where.Args...); err != nil {
		return err
	}

	now := r.store.Now()
	for _, tag := range normalizeTags(tags) {
		b := predicate.New(d)
		query := fmt.Sprintf("INSERT INTO task_tags (id, task_id, tag_name, created_at) VALUES (%s, %s, %s, %s)",
			b.Arg(domain.NewID()), b.Arg(taskID), b.Arg(tag), b.Arg(now))
		if _, err := store.Exec(ctx, tx, op, query, b.Args()...); err != nil {
			return err
		}
	}
	return nil
}

// Tags returns the task's tags in name order.
func (r *TaskRepo) Tags(ctx context.Context, taskID string) ([]string, error) {
	if !validID(taskID) {
		return []string{}, nil
	}
	tags, err := r.tagsFor(ctx, []string{taskID})
	if err != nil {
		return nil, err
	}
	if tags[taskID] == nil {
		return []string{}, nil
	}
	return tags[taskID], nil
}

// AddComment attaches a comment to the task. userID may be nil for
// system-generated comments.
func (r *TaskRepo) AddComment(ctx context.Context, taskID string, userID *string, content string) (*domain.Comment, error) {
	fields := store.Record{"task_id": taskID, "content": content}
	if userID != nil {
		fields["user_id"] = *userID
	}
	rec, err := r.comments.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	return decodeFound[domain.Comment](r.comments.FindProjected(ctx, rec.ID()))
}

// Comments returns the task's comments, oldest first.
func (r *TaskRepo) Comments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	if !validID(taskID) {
		return []domain.Comment{}, nil
	}
	p := commentStrategy.Projection
	b := predicate.New(r.store.Dialect())
	b.Add("c.task_id", predicate.Eq, taskID)
	where := b.Build()

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	recs, err := store.QueryRecords(ctx, r.store.ReadDB(), "list comments",
		"SELECT "+p.Columns+" FROM comments c "+p.Joins+where.Where()+" ORDER BY c.created_at ASC, c.id ASC",
		where.Args...)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Comment](recs)
}

// Upcoming returns open tasks due between now and now+within, soonest
// first, optionally restricted to one assignee.
func (r *TaskRepo) Upcoming(ctx context.Context, within time.Duration, assignee *string) ([]domain.TaskDetail, error) {
	now := r.store.Now()
	b := predicate.New(r.store.Dialect())
	b.Add("t.due_date", predicate.Gte, now)
	b.Add("t.due_date", predicate.Lte, now.Add(within))
	b.Add("t.status", predicate.NotEq, domain.TaskDone)
	b.Add("t.assigned_to", predicate.Eq, assignee)
	where := b.Build()

	p := taskStrategy.Projection
	query := "SELECT " + p.Columns + " FROM tasks t " + p.Joins + where.Where() +
		" ORDER BY t.due_date ASC, t.id ASC LIMIT " + b.Arg(upcomingLimit)

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	recs, err := store.QueryRecords(ctx, r.store.ReadDB(), "upcoming tasks", query, b.Args()...)
	if err != nil {
		return nil, err
	}
	items, err := decodeAll[domain.TaskDetail](recs)
	if err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Metrics counts every task by status for dashboards.
func (r *TaskRepo) Metrics(ctx context.Context) (*domain.TaskMetrics, error) {
	b := predicate.New(r.store.Dialect())
	now := b.Arg(r.store.Now())

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	m, err := decodeFound[domain.TaskMetrics](store.QueryRecord(ctx, r.store.ReadDB(), "task metrics",
		"SELECT "+fmt.Sprintf(taskCountsColumns, now)+" FROM tasks t", b.Args()...))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = &domain.TaskMetrics{}
	}
	return m, nil
}

func (r *TaskRepo) attachTags(ctx context.Context, items []domain.TaskDetail) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Tags = tags[items[i].ID]
		if items[i].Tags == nil {
			items[i].Tags = []string{}
		}
	}
	return nil
}

// tagsFor loads the tags of several tasks in one query.
func (r *TaskRepo) tagsFor(ctx context.Context, taskIDs []string) (map[string][]string, error) {
	b := predicate.New(r.store.Dialect())
	phs := make([]string, len(taskIDs))
	for i, id := range taskIDs {
		phs[i] = b.Arg(id)
	}
	query := "SELECT task_id, tag_name FROM task_tags WHERE task_id IN (" + strings.Join(phs, ", ") + ") ORDER BY tag_name ASC"

	recs, err := store.QueryRecords(ctx, r.store.ReadDB(), "list task tags", query, b.Args()...)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(taskIDs))
	for _, rec := range recs {
		id, _ := rec["task_id"].(string)
		name, _ := rec["tag_name"].(string)
		out[id] = append(out[id], name)
	}
	return out, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
