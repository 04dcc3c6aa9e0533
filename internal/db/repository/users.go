package repository

import (
	"context"
	"database/sql"
	"time"

	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/db/store"
	"avencia-pm/internal/domain"
)

var userStrategy = store.Strategy{
	Table:      "users",
	Alias:      "u",
	Searchable: []string{"u.name", "u.email", "u.department"},
	Filters: map[string]store.Filter{
		"status":     {Column: "u.status"},
		"department": {Column: "u.department"},
		"role":       {Column: "u.role"},
		"is_active":  {Column: "u.is_active"},
	},
	Sort: predicate.Sort{
		Allowed: map[string]string{
			"name":       "u.name",
			"email":      "u.email",
			"created_at": "u.created_at",
			"updated_at": "u.updated_at",
			"last_login": "u.last_login",
		},
		Default:  "created_at",
		TieBreak: "u.id",
	},
	SoftDelete: func(time.Time) store.Record {
		return store.Record{"is_active": false}
	},
}.DefaultTimestamps()

// UserRepo implements domain.UserRepository.
type UserRepo struct {
	store *store.Store
}

var _ domain.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a UserRepo writing through db.
func NewUserRepo(db *sql.DB, dialect predicate.Dialect, opts ...store.Option) *UserRepo {
	return &UserRepo{store: store.New(db, dialect, userStrategy, opts...)}
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, fields domain.Fields) (*domain.User, error) {
	rec, err := r.store.Create(ctx, store.Record(fields))
	if err != nil {
		return nil, err
	}
	return decode[domain.User](rec)
}

// GetByID returns the user or nil when it does not exist.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.User](r.store.FindByID(ctx, id))
}

// GetByEmail looks a user up by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	b := predicate.New(r.store.Dialect())
	b.AddExpr("LOWER(u.email) = LOWER(%s)", email)
	where := b.Build()
	if where.SQL == "" {
		return nil, nil
	}

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()
	return decodeFound[domain.User](store.QueryRecord(ctx, r.store.ReadDB(), "get user by email",
		"SELECT u.* FROM users u"+where.Where(), where.Args...))
}

// Update applies a partial update. It returns nil when the user does not exist.
func (r *UserRepo) Update(ctx context.Context, id string, fields domain.Fields) (*domain.User, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.User](r.store.Update(ctx, id, store.Record(fields)))
}

// Delete removes the user permanently.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return r.store.Delete(ctx, id)
}

// List returns a filtered page of users.
func (r *UserRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.User, int64, error) {
	return decodePage[domain.User](r.store.List(ctx, filter))
}

// UpdateStatus sets the presence status.
func (r *UserRepo) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	return r.Update(ctx, id, domain.Fields{"status": status})
}

// TouchLastLogin records a login at the store clock's current time.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id string) error {
	u, err := r.Update(ctx, id, domain.Fields{"last_login": r.store.Now()})
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrNotFound("user %s not found", id)
	}
	return nil
}

// Deactivate marks the user inactive without removing it.
func (r *UserRepo) Deactivate(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, nil
	}
	return decodeFound[domain.User](r.store.SoftDelete(ctx, id))
}

// Metrics counts accounts and groups active users by department, largest
// department first.
func (r *UserRepo) Metrics(ctx context.Context) (*domain.TeamMetrics, error) {
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	m, err := decodeFound[domain.TeamMetrics](store.QueryRecord(ctx, r.store.ReadDB(), "team metrics",
		`SELECT COUNT(*) AS total_members,
			COUNT(CASE WHEN u.is_active THEN 1 END) AS active_members,
			COUNT(CASE WHEN u.is_active AND u.status = 'online' THEN 1 END) AS online_members
		FROM users u`))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = &domain.TeamMetrics{}
	}

	recs, err := store.QueryRecords(ctx, r.store.ReadDB(), "team departments",
		`SELECT u.department AS department, COUNT(*) AS member_count
		FROM users u
		WHERE u.is_active AND u.department IS NOT NULL
		GROUP BY u.department
		ORDER BY member_count DESC, u.department ASC`)
	if err != nil {
		return nil, err
	}
	if m.Departments, err = decodeAll[domain.DepartmentCount](recs); err != nil {
		return nil, err
	}
	return m, nil
}
