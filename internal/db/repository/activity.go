package repository

import (
	"context"
	"database/sql"
	"time"

	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/db/store"
	"avencia-pm/internal/domain"
)

var activityStrategy = store.Strategy{
	Table:           "activity_logs",
	Alias:           "a",
	Searchable:      []string{"a.description", "a.entity_name"},
	CreatedAtColumn: "created_at",
	Filters: map[string]store.Filter{
		"user_id":     {Column: "a.user_id"},
		"entity_type": {Column: "a.entity_type"},
		"entity_id":   {Column: "a.entity_id"},
		"action":      {Column: "a.action"},
		"since":       {Column: "a.created_at", Op: predicate.Gte},
	},
	Sort: predicate.Sort{
		Allowed:  map[string]string{"created_at": "a.created_at", "action": "a.action"},
		Default:  "created_at",
		TieBreak: "a.id",
	},
	Projection: &store.Projection{
		Columns: "a.*, au.name AS user_name",
		Joins:   "LEFT JOIN users au ON au.id = a.user_id",
	},
}

// ActivityRepo implements domain.ActivityRepository.
type ActivityRepo struct {
	store *store.Store
}

var _ domain.ActivityRepository = (*ActivityRepo)(nil)

// NewActivityRepo creates an ActivityRepo writing through db.
func NewActivityRepo(db *sql.DB, dialect predicate.Dialect, opts ...store.Option) *ActivityRepo {
	return &ActivityRepo{store: store.New(db, dialect, activityStrategy, opts...)}
}

// Insert appends an entry and fills in its id and creation time.
func (r *ActivityRepo) Insert(ctx context.Context, e *domain.ActivityEntry) error {
	fields := domain.Fields{"action": e.Action}
	domain.SetIfNotNil(fields, "user_id", e.UserID)
	domain.SetIfNotNil(fields, "entity_type", e.EntityType)
	domain.SetIfNotNil(fields, "entity_id", e.EntityID)
	domain.SetIfNotNil(fields, "entity_name", e.EntityName)
	domain.SetIfNotNil(fields, "description", e.Description)
	domain.SetIfNotNil(fields, "metadata", e.Metadata)

	rec, err := r.store.Create(ctx, store.Record(fields))
	if err != nil {
		return err
	}
	stored, err := decode[domain.ActivityEntry](rec)
	if err != nil {
		return err
	}
	e.ID = stored.ID
	e.CreatedAt = stored.CreatedAt
	return nil
}

// List returns a filtered page of entries, newest first by default.
func (r *ActivityRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.ActivityEntry, int64, error) {
	return decodePage[domain.ActivityEntry](r.store.ListProjected(ctx, filter))
}

// DeleteBefore removes entries created before cutoff and returns how many
// were removed.
func (r *ActivityRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	b := predicate.New(r.store.Dialect())
	b.Add("created_at", predicate.Lt, cutoff.UTC())
	where := b.Build()

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	return store.Exec(ctx, r.store.DB(), "prune activity", "DELETE FROM activity_logs"+where.Where(), where.Args...)
}
