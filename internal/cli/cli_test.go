package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"avencia-pm/internal/domain"
)

// setupEnv points pmctl at a fresh SQLite file and isolates it from any
// .env in the working directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "pm.sqlite"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SEED_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(dir, "missing.env")
}

// run executes pmctl with args and returns stdout.
func run(t *testing.T, envFile string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file", envFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")

	out, err = run(t, env, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied.")

	out, err = run(t, env, "migrate", "status", "-o", "json")
	require.NoError(t, err)
	var rows []migrationRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.True(t, r.Applied, r.Name)
	}
}

func TestSeedAndList(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 4 users, 2 projects, 6 tasks and 2 comments.")

	out, err = run(t, env, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")

	t.Run("users_table", func(t *testing.T) {
		out, err := run(t, env, "users", "list", "--sort-by", "name", "--sort-order", "asc")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Contains(t, lines[0], "EMAIL")
		assert.Contains(t, lines[1], "Marcus Rivera")
		assert.Contains(t, out, "Page 1 of 1 (4 total)")
	})

	t.Run("users_json_filtered", func(t *testing.T) {
		out, err := run(t, env, "users", "list", "--filter", "department=Engineering", "-o", "json")
		require.NoError(t, err)
		var page listOutput[userRow]
		require.NoError(t, json.Unmarshal([]byte(out), &page))
		assert.Equal(t, int64(2), page.Total)
		for _, u := range page.Items {
			assert.Equal(t, "Engineering", u.Department)
		}
	})

	t.Run("tasks_yaml_by_tag", func(t *testing.T) {
		out, err := run(t, env, "tasks", "list", "--filter", "tag=backend", "--limit", "1", "-o", "yaml")
		require.NoError(t, err)
		var page listOutput[taskRow]
		require.NoError(t, yaml.Unmarshal([]byte(out), &page))
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Items, 1)
		assert.Contains(t, page.Items[0].Tags, "backend")
	})

	t.Run("projects_search", func(t *testing.T) {
		out, err := run(t, env, "projects", "list", "--search", "mobile", "--filter", "archived=false")
		require.NoError(t, err)
		assert.Contains(t, out, "Mobile App")
		assert.NotContains(t, out, "Website Redesign")
	})
}

func TestUsersCreate(t *testing.T) {
	env := setupEnv(t)
	_, err := run(t, env, "migrate")
	require.NoError(t, err)

	out, err := run(t, env, "users", "create", "--name", "Lena Voss", "--email", "lena@example.com",
		"--role", "manager", "--password", "long-enough-secret", "-o", "json")
	require.NoError(t, err)
	var u userRow
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.True(t, domain.IsID(u.ID))
	assert.Equal(t, "manager", u.Role)

	_, err = run(t, env, "users", "create", "--name", "Lena Again", "--email", "LENA@example.com", "--password", "long-enough-secret")
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestListFlagErrors(t *testing.T) {
	env := setupEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing equals", []string{"users", "list", "--filter", "role"}, "want key=value"},
		{"unknown key", []string{"users", "list", "--filter", "colour=blue"}, "unknown filter"},
		{"bad bool", []string{"users", "list", "--filter", "is_active=perhaps"}, "must be a boolean"},
		{"bad time", []string{"tasks", "list", "--filter", "due_from=tomorrow"}, "due_from"},
		{"bad output", []string{"users", "list", "-o", "xml"}, "unsupported output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, env, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
