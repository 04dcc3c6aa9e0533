// Package store implements a generic record store: CRUD and filtered,
// sorted, paginated listing over one table, parameterised by a Strategy.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/domain"
)

var identifierRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store provides record-level access to one table. It holds no mutable
// state; all state lives in the database.
type Store struct {
	db       *sql.DB
	readDB   *sql.DB
	dialect  predicate.Dialect
	strategy Strategy
	now      func() time.Time
	newID    func() string
	maxLimit int
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithReadDB routes read queries to a separate pool.
func WithReadDB(db *sql.DB) Option {
	return func(s *Store) {
		if db != nil {
			s.readDB = db
		}
	}
}

// WithClock replaces time.Now for timestamp maintenance.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces domain.NewID for new rows.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithMaxLimit bounds the page size of List.
func WithMaxLimit(n int) Option {
	return func(s *Store) { s.maxLimit = n }
}

// WithQueryTimeout applies a deadline to every operation. Zero disables it.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithLogger sets the logger used for debug query traces.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store for the table described by strategy.
func New(db *sql.DB, dialect predicate.Dialect, strategy Strategy, opts ...Option) *Store {
	s := &Store{
		db:       db,
		readDB:   db,
		dialect:  dialect,
		strategy: strategy,
		now:      time.Now,
		newID:    domain.NewID,
		maxLimit: domain.MaxPageSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the write pool.
func (s *Store) DB() *sql.DB { return s.db }

// ReadDB returns the read pool.
func (s *Store) ReadDB() *sql.DB { return s.readDB }

// Dialect returns the placeholder dialect.
func (s *Store) Dialect() predicate.Dialect { return s.dialect }

// Now returns the store clock's current time in UTC.
func (s *Store) Now() time.Time { return s.now().UTC() }

// WithTimeout derives a context bounded by the store's query timeout.
func (s *Store) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create inserts a row with exactly the supplied fields plus a generated id
// and the managed timestamps, and returns the stored row including schema
// defaults.
func (s *Store) Create(ctx context.Context, fields Record) (Record, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()

	var rec Record
	err := s.InTx(ctx, "create "+s.strategy.Table, func(tx *sql.Tx) error {
		var err error
		rec, err = s.CreateTx(ctx, tx, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateTx is Create inside the caller's transaction, so rows written by
// several stores commit or roll back together.
func (s *Store) CreateTx(ctx context.Context, tx *sql.Tx, fields Record) (Record, error) {
	op := "create " + s.strategy.Table
	cols, err := s.settable(op, fields)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	now := s.Now()
	b := predicate.New(s.dialect)
	names := []string{"id"}
	values := []string{b.Arg(id)}
	for _, c := range cols {
		names = append(names, c)
		values = append(values, b.Arg(fields[c]))
	}
	if c := s.strategy.CreatedAtColumn; c != "" {
		names = append(names, c)
		values = append(values, b.Arg(now))
	}
	if c := s.strategy.UpdatedAtColumn; c != "" {
		names = append(names, c)
		values = append(values, b.Arg(now))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.strategy.Table, strings.Join(names, ", "), strings.Join(values, ", "))
	s.trace(ctx, op, query, b.Args())

	if _, err := Exec(ctx, tx, op, query, b.Args()...); err != nil {
		return nil, err
	}
	rec, found, err := s.findIn(ctx, tx, op, s.strategy.alias()+".*", "", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &domain.StorageError{Op: op, Err: errors.New("inserted row not readable")}
	}
	return rec, nil
}

// FindByID returns the row with the given id. found is false when no row
// matches; that is not an error.
func (s *Store) FindByID(ctx context.Context, id string) (rec Record, found bool, err error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	return s.findIn(ctx, s.readDB, "find "+s.strategy.Table, s.strategy.alias()+".*", "", id)
}

// FindProjected is FindByID over the strategy's projection.
func (s *Store) FindProjected(ctx context.Context, id string) (rec Record, found bool, err error) {
	p := s.strategy.Projection
	if p == nil {
		return s.FindByID(ctx, id)
	}
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	return s.findIn(ctx, s.readDB, "find "+s.strategy.Table, p.Columns, p.Joins, id)
}

func (s *Store) findIn(ctx context.Context, q Querier, op, columns, joins, id string) (Record, bool, error) {
	b := predicate.New(s.dialect)
	b.Add(s.strategy.alias()+".id", predicate.Eq, id)
	where := b.Build()
	if where.SQL == "" {
		return nil, false, nil
	}

	query := "SELECT " + columns + " FROM " + s.from() + joinClause(joins) + where.Where()
	s.trace(ctx, op, query, where.Args)

	return QueryRecord(ctx, q, op, query, where.Args...)
}

// Update sets the supplied fields, refreshes the updated-at timestamp, and
// returns the stored row. found is false when no row has the id.
func (s *Store) Update(ctx context.Context, id string, fields Record) (rec Record, found bool, err error) {
	op := "update " + s.strategy.Table
	cols, err := s.settable(op, fields)
	if err != nil {
		return nil, false, err
	}

	b := predicate.New(s.dialect)
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = "+b.Arg(fields[c]))
	}
	if c := s.strategy.UpdatedAtColumn; c != "" {
		sets = append(sets, c+" = "+b.Arg(s.Now()))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		s.strategy.Table, strings.Join(sets, ", "), b.Arg(id))

	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	s.trace(ctx, op, query, b.Args())

	err = s.InTx(ctx, op, func(tx *sql.Tx) error {
		n, err := Exec(ctx, tx, op, query, b.Args()...)
		if err != nil || n == 0 {
			return err
		}
		rec, found, err = s.findIn(ctx, tx, op, s.strategy.alias()+".*", "", id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return rec, found, nil
}

// InTx runs fn inside a transaction on the write pool, rolling back when fn
// fails.
func (s *Store) InTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyCtx(ctx, op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyCtx(ctx, op, err)
	}
	return nil
}

// SoftDelete applies the strategy's soft-delete fields to the row.
func (s *Store) SoftDelete(ctx context.Context, id string) (rec Record, found bool, err error) {
	if s.strategy.SoftDelete == nil {
		return nil, false, domain.ErrValidation("%s does not support soft delete", s.strategy.Table)
	}
	return s.Update(ctx, id, s.strategy.SoftDelete(s.Now()))
}

// Delete removes the row and reports whether one was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	op := "delete " + s.strategy.Table
	b := predicate.New(s.dialect)
	query := "DELETE FROM " + s.strategy.Table + " WHERE id = " + b.Arg(id)

	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	s.trace(ctx, op, query, b.Args())

	n, err := Exec(ctx, s.db, op, query, b.Args()...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns one page of rows matching the filter and the total number of
// matching rows.
func (s *Store) List(ctx context.Context, f domain.ListFilter) ([]Record, int64, error) {
	return s.list(ctx, f, s.strategy.alias()+".*", "")
}

// ListProjected is List over the strategy's projection.
func (s *Store) ListProjected(ctx context.Context, f domain.ListFilter) ([]Record, int64, error) {
	p := s.strategy.Projection
	if p == nil {
		return s.List(ctx, f)
	}
	return s.list(ctx, f, p.Columns, p.Joins)
}

// Where builds the search and filter predicate for f. The search hook runs
// first, then the filter hook, on one builder.
func (s *Store) Where(f domain.ListFilter) *predicate.Builder {
	b := predicate.New(s.dialect)
	s.strategy.applySearch(b, f.Search)
	s.strategy.applyFilters(b, f.Filters)
	return b
}

func (s *Store) list(ctx context.Context, f domain.ListFilter, columns, joins string) ([]Record, int64, error) {
	op := "list " + s.strategy.Table
	order, err := s.strategy.sort().Clause(f.SortBy, f.SortOrder)
	if err != nil {
		return nil, 0, err
	}

	b := s.Where(f)
	where := b.Build()
	limit := b.Arg(f.EffectiveLimit(s.maxLimit))
	offset := b.Arg(f.Offset(s.maxLimit))

	countQuery := "SELECT COUNT(*) FROM " + s.from() + where.Where()
	dataQuery := "SELECT " + columns + " FROM " + s.from() + joinClause(joins) + where.Where() +
		" ORDER BY " + order + " LIMIT " + limit + " OFFSET " + offset
	dataArgs := b.Args()

	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	s.trace(ctx, op, countQuery, where.Args)
	s.trace(ctx, op, dataQuery, dataArgs)

	var (
		total int64
		rows  []Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.readDB.QueryRowContext(gctx, countQuery, where.Args...).Scan(&total); err != nil {
			return classifyCtx(gctx, op, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = QueryRecords(gctx, s.readDB, op, dataQuery, dataArgs...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// settable returns the sorted column names of fields, excluding the id and
// managed timestamps. It rejects empty sets and malformed names.
func (s *Store) settable(op string, fields Record) ([]string, error) {
	cols := make([]string, 0, len(fields))
	for name := range fields {
		switch name {
		case "id", s.strategy.CreatedAtColumn, s.strategy.UpdatedAtColumn:
			continue
		}
		if !identifierRE.MatchString(name) {
			return nil, domain.ErrValidation("%s: invalid column name %q", op, name)
		}
		cols = append(cols, name)
	}
	if len(cols) == 0 {
		return nil, domain.ErrValidation("%s: no fields to set", op)
	}
	sort.Strings(cols)
	return cols, nil
}

func (s *Store) from() string {
	alias := s.strategy.alias()
	if alias == s.strategy.Table {
		return s.strategy.Table
	}
	return s.strategy.Table + " " + alias
}

func (s *Store) trace(ctx context.Context, op, query string, args []any) {
	s.logger.DebugContext(ctx, "sql", "op", op, "query", query, "args", len(args))
}

func joinClause(joins string) string {
	if joins == "" {
		return ""
	}
	return " " + joins
}

// classifyCtx prefers the context's error when the driver reports a failure
// caused by cancellation (for example an interrupted SQLite statement).
func classifyCtx(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return Classify(op, err)
}
