package predicate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avencia-pm/internal/domain"
)

var (
	sqlitePlaceholder   = regexp.MustCompile(`\?(\d+)`)
	postgresPlaceholder = regexp.MustCompile(`\$(\d+)`)
)

// placeholderIndexes returns the placeholder numbers in textual order.
func placeholderIndexes(t *testing.T, re *regexp.Regexp, sql string) []int {
	t.Helper()
	var out []int
	for _, m := range re.FindAllStringSubmatch(sql, -1) {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		out = append(out, n)
	}
	return out
}

func TestBuilder_ParameterAlignment(t *testing.T) {
	t.Parallel()

	dialects := []struct {
		dialect Dialect
		re      *regexp.Regexp
	}{
		{SQLite, sqlitePlaceholder},
		{Postgres, postgresPlaceholder},
	}

	for _, d := range dialects {
		for searchCols := 0; searchCols <= 3; searchCols++ {
			for filters := 0; filters <= 4; filters++ {
				name := fmt.Sprintf("%s/search=%d/filters=%d", d.dialect.Name(), searchCols, filters)
				t.Run(name, func(t *testing.T) {
					t.Parallel()

					b := New(d.dialect)
					cols := make([]string, searchCols)
					for i := range cols {
						cols[i] = fmt.Sprintf("c%d", i)
					}
					b.AnyContains(cols, "term")
					for i := 0; i < filters; i++ {
						b.Add(fmt.Sprintf("f%d", i), Eq, fmt.Sprintf("v%d", i))
					}
					frag := b.Build()

					idx := placeholderIndexes(t, d.re, frag.SQL)
					require.Len(t, frag.Args, len(idx))
					for pos, n := range idx {
						assert.Equal(t, pos+1, n, "placeholder %d out of order", pos)
					}
					assert.Equal(t, len(frag.Args)+1, frag.Next)

					// Filter values must sit exactly at their placeholder's index.
					for i := 0; i < filters; i++ {
						ph := d.dialect.Placeholder(searchCols + i + 1)
						assert.Contains(t, frag.SQL, fmt.Sprintf("f%d = %s", i, ph))
						assert.Equal(t, fmt.Sprintf("v%d", i), frag.Args[searchCols+i])
					}
				})
			}
		}
	}
}

func TestBuilder_ThreadsIndexIntoLimitOffset(t *testing.T) {
	t.Parallel()

	b := New(Postgres)
	b.AnyContains([]string{"name", "email"}, "sarah")
	b.Add("department", Eq, "Design")
	where := b.Build()

	limit := b.Arg(10)
	offset := b.Arg(0)

	assert.Equal(t, "$4", limit)
	assert.Equal(t, "$5", offset)
	assert.Len(t, where.Args, 3)
	assert.Equal(t, []any{"%sarah%", "%sarah%", "Design", 10, 0}, b.Args())
}

func TestBuilder_NewAtStartsAtOffset(t *testing.T) {
	t.Parallel()

	b := NewAt(SQLite, 3)
	b.Add("id", Eq, "abc")

	frag := b.Build()
	assert.Equal(t, "id = ?3", frag.SQL)
	assert.Equal(t, 4, frag.Next)
}

func TestBuilder_AbsentVersusFalsy(t *testing.T) {
	t.Parallel()

	empty := ""
	zero := 0
	var nilStr *string
	status := domain.TaskDone

	tests := []struct {
		name    string
		value   any
		present bool
		bound   any
	}{
		{name: "nil", value: nil, present: false},
		{name: "empty string", value: "", present: false},
		{name: "blank string", value: "   ", present: false},
		{name: "nil pointer", value: nilStr, present: false},
		{name: "pointer to empty", value: &empty, present: false},
		{name: "false", value: false, present: true, bound: false},
		{name: "zero", value: 0, present: true, bound: 0},
		{name: "pointer to zero", value: &zero, present: true, bound: 0},
		{name: "string zero", value: "0", present: true, bound: "0"},
		{name: "named string type", value: status, present: true, bound: "done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := New(SQLite)
			b.Add("col", Eq, tt.value)
			frag := b.Build()

			assert.Equal(t, tt.present, Present(tt.value))
			if !tt.present {
				assert.Empty(t, frag.SQL)
				assert.Empty(t, frag.Args)
				assert.Equal(t, 1, frag.Next)
				return
			}
			assert.Equal(t, "col = ?1", frag.SQL)
			require.Len(t, frag.Args, 1)
			assert.Equal(t, tt.bound, frag.Args[0])
		})
	}
}

func TestBuilder_AnyContainsInjectionIsLiteral(t *testing.T) {
	t.Parallel()

	hostile := []string{
		`' OR '1'='1`,
		`x'; DROP TABLE users; --`,
		`100%_done\`,
	}

	for _, term := range hostile {
		t.Run(term, func(t *testing.T) {
			t.Parallel()

			b := New(SQLite)
			b.AnyContains([]string{"name", "email"}, term)
			frag := b.Build()

			assert.Equal(t, `(LOWER(name) LIKE LOWER(?1) ESCAPE '\' OR LOWER(email) LIKE LOWER(?2) ESCAPE '\')`, frag.SQL)
			assert.NotContains(t, frag.SQL, term)
			require.Len(t, frag.Args, 2)
			assert.Equal(t, "%"+EscapeLike(term)+"%", frag.Args[0])
		})
	}
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `50\% off\_now \\ really`, EscapeLike(`50% off_now \ really`))
	assert.Equal(t, "plain", EscapeLike("plain"))
}

func TestBuilder_AnyContainsBlankTermAddsNothing(t *testing.T) {
	t.Parallel()

	b := New(Postgres)
	b.AnyContains([]string{"title"}, "  ")
	b.AnyContains(nil, "x")

	frag := b.Build()
	assert.Empty(t, frag.SQL)
	assert.Empty(t, frag.Where())
}

func TestBuilder_PostgresUsesILike(t *testing.T) {
	t.Parallel()

	b := New(Postgres)
	b.AnyContains([]string{"t.title"}, "Bug")
	b.Add("t.status", Eq, "todo")

	frag := b.Build()
	assert.Equal(t, `(t.title ILIKE $1 ESCAPE '\') AND t.status = $2`, frag.SQL)
	assert.Equal(t, ` WHERE (t.title ILIKE $1 ESCAPE '\') AND t.status = $2`, frag.Where())
}

func TestBuilder_AddExprAndRaw(t *testing.T) {
	t.Parallel()

	b := New(SQLite)
	b.AddRaw("p.archived_at IS NULL")
	b.AddExpr("EXISTS (SELECT 1 FROM task_tags tt WHERE tt.task_id = t.id AND tt.tag_name = %s)", "backend")
	b.AddExpr("never %s", nil)

	frag := b.Build()
	assert.Equal(t, "p.archived_at IS NULL AND EXISTS (SELECT 1 FROM task_tags tt WHERE tt.task_id = t.id AND tt.tag_name = ?1)", frag.SQL)
	assert.Equal(t, []any{"backend"}, frag.Args)
}

func TestBuilder_UnknownOperatorPanics(t *testing.T) {
	t.Parallel()

	b := New(SQLite)
	assert.Panics(t, func() { b.Add("col", Op("; DROP"), 1) })
}

func TestBuilder_BuildSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	b := New(SQLite)
	b.Add("a", Eq, 1)
	frag := b.Build()
	b.Arg(2)

	assert.Equal(t, []any{1}, frag.Args)
	assert.Equal(t, []any{1, 2}, b.Args())
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	d, ok := DialectFor("sqlite3")
	require.True(t, ok)
	assert.Equal(t, "sqlite", d.Name())

	d, ok = DialectFor("pgx")
	require.True(t, ok)
	assert.Equal(t, "postgres", d.Name())

	_, ok = DialectFor("mysql")
	assert.False(t, ok)
}

func TestSort_Clause(t *testing.T) {
	t.Parallel()

	s := Sort{
		Allowed:  map[string]string{"name": "u.name", "created_at": "u.created_at"},
		Default:  "created_at",
		TieBreak: "u.id",
	}

	tests := []struct {
		name    string
		sortBy  string
		order   string
		want    string
		wantErr string
	}{
		{name: "defaults", want: "u.created_at DESC, u.id DESC"},
		{name: "asc", sortBy: "name", order: "asc", want: "u.name ASC, u.id ASC"},
		{name: "case insensitive order", sortBy: "name", order: "DESC", want: "u.name DESC, u.id DESC"},
		{name: "unknown column", sortBy: "password_hash", wantErr: "cannot sort by"},
		{name: "injection in column", sortBy: "name; DROP TABLE users", wantErr: "cannot sort by"},
		{name: "bad direction", sortBy: "name", order: "sideways", wantErr: "sort_order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.Clause(tt.sortBy, tt.order)
			if tt.wantErr != "" {
				require.Error(t, err)
				var ve *domain.ValidationError
				assert.ErrorAs(t, err, &ve)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
