//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	internaldb "avencia-pm/internal/db"
	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/db/store"
	"avencia-pm/internal/domain"
)

// setupPostgresRepos starts a throwaway Postgres container, migrates it and
// returns repositories bound to the Postgres dialect.
func setupPostgresRepos(t *testing.T) repos {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pm",
				"POSTGRES_PASSWORD": "pm",
				"POSTGRES_DB":       "pm",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://pm:pm@%s:%s/pm?sslmode=disable", host, port.Port())
	database, err := internaldb.Open(ctx, internaldb.Options{Driver: internaldb.DriverPostgres, DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, internaldb.RunMigrations(ctx, database.Write, database.Driver))

	clock := &stepClock{t: time.Now().UTC().Truncate(time.Second)}
	opts := []store.Option{store.WithClock(clock.Now)}
	return repos{
		users:    NewUserRepo(database.Write, predicate.Postgres, opts...),
		projects: NewProjectRepo(database.Write, predicate.Postgres, opts...),
		tasks:    NewTaskRepo(database.Write, predicate.Postgres, opts...),
		activity: NewActivityRepo(database.Write, predicate.Postgres, opts...),
		clock:    clock,
	}
}

func TestPostgres_Repositories(t *testing.T) {
	rs := setupPostgresRepos(t)
	ctx := context.Background()

	sarah := createUser(t, rs.users, "Sarah Chen", "sarah@example.com", "Design")
	marcus := createUser(t, rs.users, "Marcus Rivera", "marcus@example.com", "Engineering")

	t.Run("duplicate_email", func(t *testing.T) {
		_, err := rs.users.Create(ctx, domain.Fields{
			"name": "Copy", "email": "sarah@example.com", "password_hash": "x",
		})
		assert.True(t, domain.IsUniqueViolation(err), "got %v", err)
	})

	t.Run("list_search_and_filter", func(t *testing.T) {
		items, total, err := rs.users.List(ctx, domain.ListFilter{
			Search:  "rivera",
			Filters: map[string]any{"department": "Engineering"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, marcus.ID, items[0].ID)
	})

	p := createProject(t, rs.projects, "Website Redesign", sarah)
	_, err := rs.projects.AddMember(ctx, p.ID, marcus.ID, domain.MemberMember)
	require.NoError(t, err)

	t.Run("check_constraint", func(t *testing.T) {
		_, err := rs.projects.Update(ctx, p.ID, domain.Fields{"progress": 150})
		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, domain.ConstraintCheck, se.Constraint)
	})

	t.Run("tasks_tags_and_summary", func(t *testing.T) {
		task := createTask(t, rs.tasks, p.ID, "Build API", domain.Fields{
			"assigned_to": marcus.ID,
			"created_by":  sarah.ID,
			"status":      string(domain.TaskInProgress),
		})
		createTask(t, rs.tasks, p.ID, "Write docs", nil)
		require.NoError(t, rs.tasks.SetTags(ctx, task.ID, []string{"backend", "api"}))

		items, total, err := rs.tasks.ListDetailed(ctx, domain.ListFilter{
			Filters: map[string]any{"tag": "backend"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, []string{"api", "backend"}, items[0].Tags)

		summary, err := rs.projects.GetSummary(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, int64(1), summary.MemberCount)
		assert.Equal(t, int64(2), summary.TaskCount)
	})

	t.Run("cascade_delete", func(t *testing.T) {
		removed, err := rs.projects.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, total, err := rs.tasks.List(ctx, domain.ListFilter{Filters: map[string]any{"project_id": p.ID}})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
