package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "avencia-pm/internal/db"
	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/domain"
)

// tickClock advances one second per reading so timestamps are strictly
// increasing.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func userStrategy() Strategy {
	return Strategy{
		Table:      "users",
		Alias:      "u",
		Searchable: []string{"u.name", "u.email", "u.department"},
		Filters: map[string]Filter{
			"department": {Column: "u.department"},
			"status":     {Column: "u.status"},
			"is_active":  {Column: "u.is_active"},
		},
		Sort: predicate.Sort{
			Allowed: map[string]string{
				"name":       "u.name",
				"created_at": "u.created_at",
			},
			Default:  "created_at",
			TieBreak: "u.id",
		},
		SoftDelete: func(time.Time) Record { return Record{"is_active": false} },
	}.DefaultTimestamps()
}

func setupUserStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	clock := &tickClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithReadDB(readDB), WithClock(clock.Now)}, opts...)
	return New(writeDB, predicate.SQLite, userStrategy(), opts...)
}

func userFields(name, email, department string) Record {
	r := Record{"name": name, "email": email, "password_hash": "x"}
	if department != "" {
		r["department"] = department
	}
	return r
}

func seedUsers(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []Record{
		userFields("Sarah Chen", "sarah@example.com", "Design"),
		userFields("Mike Johnson", "mike@example.com", "Engineering"),
		userFields("Emily Davis", "emily@example.com", "Marketing"),
		userFields("Alex Rodriguez", "alex@example.com", "Engineering"),
		userFields("Lisa Wang", "lisa@example.com", "Design"),
	} {
		_, err := s.Create(ctx, u)
		require.NoError(t, err)
	}
}

func TestStore_CreateAndFind(t *testing.T) {
	s := setupUserStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, Record{
		"id":            "caller-supplied-id",
		"name":          "Sarah Chen",
		"email":         "sarah@example.com",
		"password_hash": "hash",
		"department":    "Design",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "caller-supplied-id", created.ID())
	assert.True(t, domain.IsID(created.ID()))
	assert.Equal(t, "Sarah Chen", created["name"])
	assert.Equal(t, "member", created["role"], "schema default")
	assert.Equal(t, created["created_at"], created["updated_at"])

	found, ok, err := s.FindByID(ctx, created.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, found)
}

func TestStore_CreateEmptyFields(t *testing.T) {
	s := setupUserStore(t)

	t.Run("nil", func(t *testing.T) {
		_, err := s.Create(context.Background(), nil)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("only managed columns", func(t *testing.T) {
		_, err := s.Create(context.Background(), Record{"id": "x", "created_at": time.Now()})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestStore_CreateRejectsMalformedColumn(t *testing.T) {
	s := setupUserStore(t)

	_, err := s.Create(context.Background(), Record{"name = 'x'; --": "boom"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestStore_CreateUsesIDGenerator(t *testing.T) {
	ids := []string{"11111111-1111-4111-8111-111111111111", "22222222-2222-4222-8222-222222222222"}
	next := 0
	s := setupUserStore(t, WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))
	ctx := context.Background()

	first, err := s.Create(ctx, userFields("Sarah Chen", "sarah@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, ids[0], first.ID())

	second, err := s.Create(ctx, userFields("Mike Johnson", "mike@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, ids[1], second.ID())
}

func TestStore_CreateTxRollsBackWithCaller(t *testing.T) {
	s := setupUserStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, "seed", func(tx *sql.Tx) error {
		if _, err := s.CreateTx(ctx, tx, userFields("Sarah Chen", "sarah@example.com", "")); err != nil {
			return err
		}
		_, err := s.CreateTx(ctx, tx, userFields("Sarah Copy", "sarah@example.com", ""))
		return err
	})
	require.Error(t, err)
	assert.True(t, domain.IsUniqueViolation(err), "got %v", err)

	_, total, err := s.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "first insert must roll back with the second")
}

func TestStore_FindByIDNotFound(t *testing.T) {
	s := setupUserStore(t)

	rec, ok, err := s.FindByID(context.Background(), domain.NewID())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)

	rec, ok, err = s.FindByID(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestStore_Update(t *testing.T) {
	s := setupUserStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, userFields("Mike", "mike@example.com", "Engineering"))
	require.NoError(t, err)

	t.Run("sets fields and refreshes updated_at", func(t *testing.T) {
		updated, ok, err := s.Update(ctx, created.ID(), Record{"status": "online", "id": "ignored"})
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, created.ID(), updated.ID())
		assert.Equal(t, "online", updated["status"])
		assert.Equal(t, "Mike", updated["name"])
		assert.Equal(t, created["created_at"], updated["created_at"])

		before, ok := created["updated_at"].(time.Time)
		require.True(t, ok)
		after, ok := updated["updated_at"].(time.Time)
		require.True(t, ok)
		assert.True(t, after.After(before), "updated_at %v should be after %v", after, before)
	})

	t.Run("empty field set", func(t *testing.T) {
		_, _, err := s.Update(ctx, created.ID(), Record{})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("not found", func(t *testing.T) {
		rec, ok, err := s.Update(ctx, domain.NewID(), Record{"status": "away"})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, rec)
	})
}

func TestStore_Delete(t *testing.T) {
	s := setupUserStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, userFields("Emily", "emily@example.com", ""))
	require.NoError(t, err)

	removed, err := s.Delete(ctx, created.ID())
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, created.ID())
	require.NoError(t, err)
	assert.False(t, removed)

	_, ok, err := s.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SoftDelete(t *testing.T) {
	s := setupUserStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, userFields("Alex", "alex@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, true, created["is_active"])

	rec, ok, err := s.SoftDelete(ctx, created.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, false, rec["is_active"])

	noSoft := New(s.DB(), predicate.SQLite, Strategy{Table: "comments"})
	_, _, err = noSoft.SoftDelete(ctx, created.ID())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestStore_ListScenarioSearchAndFilter(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)

	rows, total, err := s.List(context.Background(), domain.ListFilter{
		Search:    "sarah",
		Filters:   map[string]any{"department": "Design"},
		Page:      1,
		Limit:     10,
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sarah Chen", rows[0]["name"])
}

func TestStore_ListSearchIsCaseInsensitive(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)

	_, total, err := s.List(context.Background(), domain.ListFilter{Search: "ENGINEERING"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestStore_ListPaginationConsistency(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)
	ctx := context.Background()

	filters := []domain.ListFilter{
		{},
		{Filters: map[string]any{"department": "Engineering"}},
		{Search: "a", SortBy: "name", SortOrder: "asc"},
	}

	for i, base := range filters {
		t.Run(fmt.Sprintf("filter %d", i), func(t *testing.T) {
			_, total, err := s.List(ctx, base)
			require.NoError(t, err)
			require.Positive(t, total)

			for _, limit := range []int{1, 2, 3} {
				f := base
				f.Limit = limit
				f.Page = 2
				_, pagedTotal, err := s.List(ctx, f)
				require.NoError(t, err)
				assert.Equal(t, total, pagedTotal, "total must not depend on page/limit")
			}

			all := base
			all.Page, all.Limit = 1, int(total)
			everything, _, err := s.List(ctx, all)
			require.NoError(t, err)
			require.Len(t, everything, int(total))

			half := int((total + 1) / 2)
			first := base
			first.Page, first.Limit = 1, half
			second := base
			second.Page, second.Limit = 2, half

			p1, _, err := s.List(ctx, first)
			require.NoError(t, err)
			p2, _, err := s.List(ctx, second)
			require.NoError(t, err)

			var ids []string
			for _, r := range append(p1, p2...) {
				ids = append(ids, r.ID())
			}
			var want []string
			for _, r := range everything {
				want = append(want, r.ID())
			}
			assert.Equal(t, want, ids, "pages must cover the sorted set with no overlap or gap")
		})
	}
}

func TestStore_ListDefaults(t *testing.T) {
	s := setupUserStore(t, WithMaxLimit(3))
	seedUsers(t, s)

	rows, total, err := s.List(context.Background(), domain.ListFilter{Page: 0, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 3, "limit clamps to the maximum")

	// Default sort is created_at descending: the last seeded user comes first.
	assert.Equal(t, "Lisa Wang", rows[0]["name"])
}

func TestStore_ListAbsentVersusFalsy(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)
	ctx := context.Background()

	rows, _, err := s.List(ctx, domain.ListFilter{Filters: map[string]any{"department": "Marketing"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, _, err = s.SoftDelete(ctx, rows[0].ID())
	require.NoError(t, err)

	_, total, err := s.List(ctx, domain.ListFilter{Filters: map[string]any{"is_active": false}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "false must constrain the query")

	_, total, err = s.List(ctx, domain.ListFilter{Filters: map[string]any{"is_active": true}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	_, total, err = s.List(ctx, domain.ListFilter{Filters: map[string]any{"is_active": nil, "department": ""}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total, "absent values must not constrain the query")

	_, total, err = s.List(ctx, domain.ListFilter{Filters: map[string]any{"department": "0"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total, `"0" is a real value`)
}

func TestStore_ListIgnoresUnknownFilterKeys(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)

	_, total, err := s.List(context.Background(), domain.ListFilter{
		Filters: map[string]any{"password_hash": "x", "1=1; --": "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestStore_ListInjectionSafety(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)
	ctx := context.Background()

	for _, term := range []string{`' OR '1'='1`, `--`, `;`, `x'; DROP TABLE users; --`, `%`, `_`} {
		t.Run(term, func(t *testing.T) {
			rows, total, err := s.List(ctx, domain.ListFilter{Search: term})
			require.NoError(t, err)
			assert.Equal(t, int64(0), total)
			assert.Empty(t, rows)
		})
	}

	_, total, err := s.List(ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total, "table must survive")

	_, err = s.Create(ctx, userFields("O'Brien 100%", "ob@example.com", ""))
	require.NoError(t, err)
	rows, total, err := s.List(ctx, domain.ListFilter{Search: "o'brien 100%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "O'Brien 100%", rows[0]["name"])
}

func TestStore_ListRejectsBadSort(t *testing.T) {
	s := setupUserStore(t)

	_, _, err := s.List(context.Background(), domain.ListFilter{SortBy: "password_hash"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	_, _, err = s.List(context.Background(), domain.ListFilter{SortBy: "name", SortOrder: "asc; DROP TABLE users"})
	require.ErrorAs(t, err, &ve)
}

func TestStore_ListCallsHooksOnceEach(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)

	var calls []string
	strategy := userStrategy()
	strategy.Search = func(b *predicate.Builder, term string) {
		calls = append(calls, "search")
		b.AnyContains([]string{"u.name"}, term)
	}
	strategy.Additional = func(b *predicate.Builder, f map[string]any) {
		calls = append(calls, "filters")
		assert.Equal(t, 2, b.Next(), "filter hook must continue after the search placeholder")
		ApplyFilters(b, userStrategy().Filters, f)
	}
	s := New(writeDB, predicate.SQLite, strategy)

	_, _, err := s.List(context.Background(), domain.ListFilter{
		Search:  "x",
		Filters: map[string]any{"department": "Design"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "filters"}, calls)
}

func TestStore_UniqueViolationIsStorageError(t *testing.T) {
	s := setupUserStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, userFields("A", "dup@example.com", ""))
	require.NoError(t, err)

	_, err = s.Create(ctx, userFields("B", "DUP@example.com", ""))
	require.Error(t, err)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.ConstraintUnique, se.Constraint)
	assert.True(t, domain.IsUniqueViolation(err))
	assert.NotNil(t, se.Unwrap(), "driver error is preserved")
}

func TestStore_CheckViolationIsStorageError(t *testing.T) {
	s := setupUserStore(t)

	fields := userFields("A", "a@example.com", "")
	fields["role"] = "superuser"
	_, err := s.Create(context.Background(), fields)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.ConstraintCheck, se.Constraint)
}

func TestStore_Cancellation(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.List(ctx, domain.ListFilter{})
	var ce *domain.CancelledError
	require.ErrorAs(t, err, &ce)

	var se *domain.StorageError
	assert.False(t, errors.As(err, &se), "cancellation is not a storage error")

	_, err = s.Create(ctx, userFields("Z", "z@example.com", ""))
	require.ErrorAs(t, err, &ce)
}

func TestStore_Timeout(t *testing.T) {
	s := setupUserStore(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, _, err := s.FindByID(ctx, domain.NewID())
	var te *domain.TimeoutError
	require.ErrorAs(t, err, &te)
}

func TestStore_ConcurrentLists(t *testing.T) {
	s := setupUserStore(t)
	seedUsers(t, s)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, total, err := s.List(context.Background(), domain.ListFilter{Limit: 2})
			if err == nil && total != 5 {
				err = fmt.Errorf("total = %d", total)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
