// Package predicate builds parameterised SQL WHERE fragments. A Builder owns
// the running placeholder index, so fragments added in sequence can never
// disagree with the order of their bound arguments.
package predicate

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Op is a comparison operator usable in Builder.Add.
type Op string

// Supported operators.
const (
	Eq    Op = "="
	NotEq Op = "<>"
	Lt    Op = "<"
	Lte   Op = "<="
	Gt    Op = ">"
	Gte   Op = ">="
)

func (o Op) valid() bool {
	switch o {
	case Eq, NotEq, Lt, Lte, Gt, Gte:
		return true
	}
	return false
}

// Fragment is a boolean SQL expression and the values it binds. The nth
// placeholder in SQL binds Args[n-1]. Next is the first unused index.
type Fragment struct {
	SQL  string
	Args []any
	Next int
}

// Where returns " WHERE <SQL>", or "" for an empty fragment.
func (f Fragment) Where() string {
	if f.SQL == "" {
		return ""
	}
	return " WHERE " + f.SQL
}

// Builder accumulates AND-ed predicates and their arguments.
type Builder struct {
	dialect Dialect
	next    int
	clauses []string
	args    []any
}

// New returns a Builder whose first placeholder is 1.
func New(d Dialect) *Builder {
	return NewAt(d, 1)
}

// NewAt returns a Builder whose first placeholder is next.
func NewAt(d Dialect, next int) *Builder {
	if next < 1 {
		next = 1
	}
	return &Builder{dialect: d, next: next}
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect { return b.dialect }

// Next returns the index the next bound argument will receive.
func (b *Builder) Next() int { return b.next }

// Args returns a copy of every argument bound so far, including those bound
// through Arg after Build.
func (b *Builder) Args() []any { return slices.Clone(b.args) }

// Arg binds value to the next placeholder and returns its SQL text. Use it
// for values outside the WHERE clause, such as SET lists and LIMIT/OFFSET.
func (b *Builder) Arg(value any) string {
	ph := b.dialect.Placeholder(b.next)
	b.next++
	b.args = append(b.args, normalize(value))
	return ph
}

// Add appends "column op ?" when value is present (see Present).
func (b *Builder) Add(column string, op Op, value any) {
	if !op.valid() {
		panic(fmt.Sprintf("predicate: unknown operator %q", string(op)))
	}
	if !Present(value) {
		return
	}
	b.clauses = append(b.clauses, column+" "+string(op)+" "+b.Arg(value))
}

// AddExpr appends an expression with exactly one %s verb, replaced by the
// placeholder bound to value. Absent values add nothing.
func (b *Builder) AddExpr(format string, value any) {
	if !Present(value) {
		return
	}
	b.clauses = append(b.clauses, fmt.Sprintf(format, b.Arg(value)))
}

// AddRaw appends a constant expression that binds no arguments.
func (b *Builder) AddRaw(expr string) {
	if expr == "" {
		return
	}
	b.clauses = append(b.clauses, expr)
}

// AnyContains appends an OR group matching term as a case-insensitive
// substring of any of the columns. LIKE metacharacters in term match
// literally. A blank term adds nothing.
func (b *Builder) AnyContains(columns []string, term string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	pattern := "%" + EscapeLike(term) + "%"
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, b.dialect.ContainsFold(col, b.Arg(pattern)))
	}
	b.clauses = append(b.clauses, "("+strings.Join(parts, " OR ")+")")
}

// Build returns the AND-ed predicates with the arguments bound so far.
func (b *Builder) Build() Fragment {
	return Fragment{
		SQL:  strings.Join(b.clauses, " AND "),
		Args: slices.Clone(b.args),
		Next: b.next,
	}
}

// Present reports whether a filter value constrains a query. nil, nil
// pointers and blank strings are absent; false, 0 and "0" are present.
func Present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return strings.TrimSpace(rv.String()) != ""
	}
	return true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters with a backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// normalize dereferences pointers and converts named string types so every
// driver receives plain values.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
		v = rv.Interface()
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}
