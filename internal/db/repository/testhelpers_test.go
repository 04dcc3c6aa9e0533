package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	internaldb "avencia-pm/internal/db"
	"avencia-pm/internal/db/predicate"
	"avencia-pm/internal/db/store"
	"avencia-pm/internal/domain"
)

// stepClock advances by one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type repos struct {
	users    *UserRepo
	projects *ProjectRepo
	tasks    *TaskRepo
	activity *ActivityRepo
	clock    *stepClock
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	clock := &stepClock{t: time.Now().UTC().Truncate(time.Second)}
	opts := []store.Option{store.WithReadDB(readDB), store.WithClock(clock.Now)}
	return repos{
		users:    NewUserRepo(writeDB, predicate.SQLite, opts...),
		projects: NewProjectRepo(writeDB, predicate.SQLite, opts...),
		tasks:    NewTaskRepo(writeDB, predicate.SQLite, opts...),
		activity: NewActivityRepo(writeDB, predicate.SQLite, opts...),
		clock:    clock,
	}
}

func createUser(t *testing.T, r *UserRepo, name, email, department string) *domain.User {
	t.Helper()
	f := domain.Fields{"name": name, "email": email, "password_hash": "hash"}
	if department != "" {
		f["department"] = department
	}
	u, err := r.Create(context.Background(), f)
	require.NoError(t, err)
	return u
}

func createProject(t *testing.T, r *ProjectRepo, name string, createdBy *domain.User) *domain.Project {
	t.Helper()
	f := domain.Fields{"name": name}
	if createdBy != nil {
		f["created_by"] = createdBy.ID
	}
	p, err := r.Create(context.Background(), f)
	require.NoError(t, err)
	return p
}

func createTask(t *testing.T, r *TaskRepo, projectID, title string, extra domain.Fields) *domain.Task {
	t.Helper()
	f := domain.Fields{"title": title, "project_id": projectID}
	for k, v := range extra {
		f[k] = v
	}
	task, err := r.Create(context.Background(), f)
	require.NoError(t, err)
	return task
}
