package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avencia-pm/internal/domain"
	"avencia-pm/internal/service/activity"
	"avencia-pm/internal/testutil"
)

// === Test Helpers ===

var fixedNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestService(repo *testutil.MockTaskRepo, projects *testutil.MockProjectRepo) (*Service, *testutil.MockActivityRepo) {
	log := &testutil.MockActivityRepo{}
	if projects == nil {
		projects = &testutil.MockProjectRepo{}
	}
	svc := NewService(repo, projects, activity.NewLogger(log, nil))
	svc.now = func() time.Time { return fixedNow }
	return svc, log
}

func knownProject(id string) *testutil.MockProjectRepo {
	return &testutil.MockProjectRepo{
		GetByIDFn: func(_ context.Context, got string) (*domain.Project, error) {
			if got == id {
				return &domain.Project{ID: id, Name: "Website"}, nil
			}
			return nil, nil
		},
	}
}

func taskWith(status domain.TaskStatus) func(context.Context, string) (*domain.Task, error) {
	return func(_ context.Context, id string) (*domain.Task, error) {
		return &domain.Task{ID: id, Title: "Homepage", Status: status}, nil
	}
}

func detailOf(status domain.TaskStatus) func(context.Context, string) (*domain.TaskDetail, error) {
	return func(_ context.Context, id string) (*domain.TaskDetail, error) {
		return &domain.TaskDetail{Task: domain.Task{ID: id, Title: "Homepage", Status: status}, Tags: []string{}}, nil
	}
}

// === Create ===

func TestService_Create(t *testing.T) {
	pid := domain.NewID()

	t.Run("happy_path_with_tags", func(t *testing.T) {
		uid := domain.NewID()
		var (
			got     domain.Fields
			gotTags []string
		)
		repo := &testutil.MockTaskRepo{
			CreateWithTagsFn: func(_ context.Context, f domain.Fields, tags []string) (*domain.Task, error) {
				got, gotTags = f, tags
				return &domain.Task{ID: "t1", Title: "Homepage", ProjectID: pid, Status: domain.TaskTodo}, nil
			},
			GetDetailFn: detailOf(domain.TaskTodo),
		}
		svc, log := newTestService(repo, knownProject(pid))
		ctx := domain.WithPrincipal(context.Background(), domain.ContextPrincipal{UserID: uid, Role: domain.RoleMember})

		td, err := svc.Create(ctx, domain.CreateTaskRequest{Title: " Homepage ", ProjectID: pid, Tags: []string{"web", "design"}})
		require.NoError(t, err)
		assert.Equal(t, "t1", td.ID)
		assert.Equal(t, "Homepage", got["title"])
		assert.Equal(t, uid, got["created_by"])
		assert.NotContains(t, got, "status")
		assert.NotContains(t, got, "completed_at")
		assert.Equal(t, []string{"web", "design"}, gotTags)
		assert.True(t, log.HasAction(activity.ActionCreate))
	})

	t.Run("done_on_create_stamps_completed_at", func(t *testing.T) {
		var got domain.Fields
		repo := &testutil.MockTaskRepo{
			CreateWithTagsFn: func(_ context.Context, f domain.Fields, _ []string) (*domain.Task, error) {
				got = f
				return &domain.Task{ID: "t1", ProjectID: pid, Status: domain.TaskDone}, nil
			},
			GetDetailFn: detailOf(domain.TaskDone),
		}
		svc, _ := newTestService(repo, knownProject(pid))
		_, err := svc.Create(context.Background(), domain.CreateTaskRequest{Title: "x", ProjectID: pid, Status: domain.TaskDone})
		require.NoError(t, err)
		assert.Equal(t, fixedNow, got["completed_at"])
	})

	t.Run("unknown_project", func(t *testing.T) {
		svc, _ := newTestService(&testutil.MockTaskRepo{}, knownProject(pid))
		_, err := svc.Create(context.Background(), domain.CreateTaskRequest{Title: "x", ProjectID: domain.NewID()})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
	})

	t.Run("unknown_assignee", func(t *testing.T) {
		repo := &testutil.MockTaskRepo{
			CreateWithTagsFn: func(context.Context, domain.Fields, []string) (*domain.Task, error) {
				return nil, &domain.StorageError{Op: "create tasks", Constraint: domain.ConstraintForeignKey, Err: errors.New("FOREIGN KEY")}
			},
		}
		svc, _ := newTestService(repo, knownProject(pid))
		assignee := domain.NewID()
		_, err := svc.Create(context.Background(), domain.CreateTaskRequest{Title: "x", ProjectID: pid, AssignedTo: &assignee})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("tag_failure_creates_nothing", func(t *testing.T) {
		repo := &testutil.MockTaskRepo{
			CreateWithTagsFn: func(context.Context, domain.Fields, []string) (*domain.Task, error) {
				return nil, &domain.StorageError{Op: "create task with tags", Err: errors.New("disk I/O error")}
			},
		}
		svc, log := newTestService(repo, knownProject(pid))
		_, err := svc.Create(context.Background(), domain.CreateTaskRequest{Title: "x", ProjectID: pid, Tags: []string{"web"}})
		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Empty(t, log.Entries, "no activity for a rolled-back create")
	})

	t.Run("validation_error", func(t *testing.T) {
		svc, _ := newTestService(&testutil.MockTaskRepo{}, nil)
		for _, req := range []domain.CreateTaskRequest{
			{Title: "", ProjectID: pid},
			{Title: "x", ProjectID: "nope"},
			{Title: "x", ProjectID: pid, Status: "waiting"},
			{Title: "x", ProjectID: pid, Tags: []string{" "}},
		} {
			_, err := svc.Create(context.Background(), req)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve, "request %+v", req)
		}
	})
}

// === Update ===

func TestService_Update(t *testing.T) {
	id := domain.NewID()

	t.Run("done_stamps_completed_at", func(t *testing.T) {
		var got domain.Fields
		repo := &testutil.MockTaskRepo{
			GetByIDFn: taskWith(domain.TaskInProgress),
			UpdateFn: func(_ context.Context, _ string, f domain.Fields) (*domain.Task, error) {
				got = f
				return &domain.Task{ID: id}, nil
			},
			GetDetailFn: detailOf(domain.TaskDone),
		}
		svc, log := newTestService(repo, nil)

		status := domain.TaskDone
		td, err := svc.Update(context.Background(), id, domain.UpdateTaskRequest{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskDone, td.Status)
		assert.Equal(t, fixedNow, got["completed_at"])

		e := log.LastEntry()
		require.NotNil(t, e)
		assert.Equal(t, activity.ActionStatusChange, e.Action)
	})

	t.Run("reopen_clears_completed_at", func(t *testing.T) {
		var got domain.Fields
		repo := &testutil.MockTaskRepo{
			GetByIDFn: taskWith(domain.TaskDone),
			UpdateFn: func(_ context.Context, _ string, f domain.Fields) (*domain.Task, error) {
				got = f
				return &domain.Task{ID: id}, nil
			},
			GetDetailFn: detailOf(domain.TaskReview),
		}
		svc, _ := newTestService(repo, nil)

		status := domain.TaskReview
		_, err := svc.Update(context.Background(), id, domain.UpdateTaskRequest{Status: &status})
		require.NoError(t, err)
		v, ok := got["completed_at"]
		require.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("empty_assignee_unassigns", func(t *testing.T) {
		var got domain.Fields
		repo := &testutil.MockTaskRepo{
			GetByIDFn: taskWith(domain.TaskTodo),
			UpdateFn: func(_ context.Context, _ string, f domain.Fields) (*domain.Task, error) {
				got = f
				return &domain.Task{ID: id}, nil
			},
			GetDetailFn: detailOf(domain.TaskTodo),
		}
		svc, _ := newTestService(repo, nil)

		empty := ""
		_, err := svc.Update(context.Background(), id, domain.UpdateTaskRequest{AssignedTo: &empty})
		require.NoError(t, err)
		assert.Equal(t, domain.Fields{"assigned_to": nil}, got)
	})

	t.Run("tags_only_skips_row_update", func(t *testing.T) {
		var gotTags []string
		repo := &testutil.MockTaskRepo{
			GetByIDFn:   taskWith(domain.TaskTodo),
			SetTagsFn:   func(_ context.Context, _ string, tags []string) error { gotTags = tags; return nil },
			GetDetailFn: detailOf(domain.TaskTodo),
		}
		svc, _ := newTestService(repo, nil)

		_, err := svc.Update(context.Background(), id, domain.UpdateTaskRequest{Tags: []string{}})
		require.NoError(t, err)
		assert.NotNil(t, gotTags)
		assert.Empty(t, gotTags)
	})

	t.Run("not_found", func(t *testing.T) {
		repo := &testutil.MockTaskRepo{
			GetByIDFn: func(context.Context, string) (*domain.Task, error) { return nil, nil },
		}
		svc, _ := newTestService(repo, nil)
		title := "x"
		_, err := svc.Update(context.Background(), id, domain.UpdateTaskRequest{Title: &title})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
	})
}

// === Delete / Tags / Comments ===

func TestService_Delete(t *testing.T) {
	repo := &testutil.MockTaskRepo{
		GetByIDFn: taskWith(domain.TaskTodo),
		DeleteFn:  func(context.Context, string) (bool, error) { return true, nil },
	}
	svc, log := newTestService(repo, nil)
	require.NoError(t, svc.Delete(context.Background(), domain.NewID()))
	assert.True(t, log.HasAction(activity.ActionDelete))
}

func TestService_SetTags(t *testing.T) {
	id := domain.NewID()

	t.Run("returns_stored_tags", func(t *testing.T) {
		repo := &testutil.MockTaskRepo{
			GetByIDFn: taskWith(domain.TaskTodo),
			SetTagsFn: func(context.Context, string, []string) error { return nil },
			TagsFn:    func(context.Context, string) ([]string, error) { return []string{"api", "web"}, nil },
		}
		svc, _ := newTestService(repo, nil)
		tags, err := svc.SetTags(context.Background(), id, []string{"web", "api", "web"})
		require.NoError(t, err)
		assert.Equal(t, []string{"api", "web"}, tags)
	})

	t.Run("tag_too_long", func(t *testing.T) {
		svc, _ := newTestService(&testutil.MockTaskRepo{}, nil)
		long := make([]byte, domain.MaxTagLength+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err := svc.SetTags(context.Background(), id, []string{string(long)})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("unknown_task", func(t *testing.T) {
		repo := &testutil.MockTaskRepo{
			GetByIDFn: func(context.Context, string) (*domain.Task, error) { return nil, nil },
		}
		svc, _ := newTestService(repo, nil)
		_, err := svc.SetTags(context.Background(), id, []string{"web"})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
	})
}

func TestService_AddComment(t *testing.T) {
	uid := domain.NewID()
	var gotUser *string
	repo := &testutil.MockTaskRepo{
		GetByIDFn: taskWith(domain.TaskTodo),
		AddCommentFn: func(_ context.Context, taskID string, userID *string, content string) (*domain.Comment, error) {
			gotUser = userID
			return &domain.Comment{ID: "c1", TaskID: taskID, UserID: userID, Content: content}, nil
		},
	}
	svc, log := newTestService(repo, nil)
	ctx := domain.WithPrincipal(context.Background(), domain.ContextPrincipal{UserID: uid})

	c, err := svc.AddComment(ctx, domain.NewID(), domain.CreateCommentRequest{Content: "  looks good "})
	require.NoError(t, err)
	assert.Equal(t, "looks good", c.Content)
	require.NotNil(t, gotUser)
	assert.Equal(t, uid, *gotUser)
	assert.True(t, log.HasAction(activity.ActionComment))

	_, err = svc.AddComment(ctx, domain.NewID(), domain.CreateCommentRequest{Content: " "})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

// === Dashboard reads ===

func TestService_Upcoming(t *testing.T) {
	t.Run("defaults_to_a_week", func(t *testing.T) {
		var (
			within   time.Duration
			assignee *string
		)
		repo := &testutil.MockTaskRepo{
			UpcomingFn: func(_ context.Context, w time.Duration, a *string) ([]domain.TaskDetail, error) {
				within, assignee = w, a
				return nil, nil
			},
		}
		svc, _ := newTestService(repo, nil)
		empty := ""
		tasks, err := svc.Upcoming(context.Background(), 0, &empty)
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Equal(t, 7*24*time.Hour, within)
		assert.Nil(t, assignee)
	})

	t.Run("out_of_range", func(t *testing.T) {
		svc, _ := newTestService(&testutil.MockTaskRepo{}, nil)
		for _, days := range []int{-1, MaxUpcomingDays + 1} {
			_, err := svc.Upcoming(context.Background(), days, nil)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve, "days=%d", days)
		}
	})
}

func TestService_List(t *testing.T) {
	repo := &testutil.MockTaskRepo{
		ListDetailedFn: func(_ context.Context, f domain.ListFilter) ([]domain.TaskDetail, int64, error) {
			return []domain.TaskDetail{{Task: domain.Task{ID: "t1"}}}, 45, nil
		},
	}
	svc, _ := newTestService(repo, nil)
	page, err := svc.List(context.Background(), domain.ListFilter{Page: 3, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(45), page.Total)
	assert.Equal(t, 3, page.TotalPages())
}
