package store

import (
	"sort"
	"time"

	"avencia-pm/internal/db/predicate"
)

// Filter maps one ListFilter key onto a predicate. Exactly one of Column or
// Expr is set. Expr must contain a single %s for the bound value.
type Filter struct {
	Column string
	Op     predicate.Op // defaults to predicate.Eq
	Expr   string
}

// Projection is a read-only joined view of the table. Columns must include
// the base columns (usually "<alias>.*"); Joins are appended after FROM.
type Projection struct {
	Columns string
	Joins   string
}

// Strategy describes a table to the generic store: what is searchable, which
// filter keys are recognised, what may be sorted, and how rows are decorated.
type Strategy struct {
	Table string
	// Alias qualifies columns in list queries. Defaults to Table.
	Alias string

	// Searchable columns are OR-ed together for free-text search.
	Searchable []string
	// Filters maps ListFilter keys to predicates. Unknown keys are ignored.
	Filters map[string]Filter
	// Sort lists the sortable columns. An empty Sort allows created_at only.
	Sort predicate.Sort

	// CreatedAtColumn and UpdatedAtColumn name the timestamp columns the
	// store maintains. Empty disables that timestamp.
	CreatedAtColumn string
	UpdatedAtColumn string

	// Projection, when set, backs FindProjected and ListProjected.
	Projection *Projection

	// Search overrides the default search predicate (AnyContains over
	// Searchable).
	Search func(b *predicate.Builder, term string)
	// Additional overrides the default filter predicates (Filters).
	Additional func(b *predicate.Builder, filters map[string]any)

	// SoftDelete returns the fields that mark a row inactive. Nil means the
	// table has no soft-delete.
	SoftDelete func(now time.Time) Record
}

// DefaultTimestamps sets created_at and updated_at as the managed columns.
func (s Strategy) DefaultTimestamps() Strategy {
	s.CreatedAtColumn = "created_at"
	s.UpdatedAtColumn = "updated_at"
	return s
}

func (s Strategy) alias() string {
	if s.Alias == "" {
		return s.Table
	}
	return s.Alias
}

func (s Strategy) sort() predicate.Sort {
	if len(s.Sort.Allowed) > 0 {
		return s.Sort
	}
	col := s.alias() + ".created_at"
	return predicate.Sort{
		Allowed:  map[string]string{"created_at": col},
		Default:  "created_at",
		TieBreak: s.alias() + ".id",
	}
}

func (s Strategy) applySearch(b *predicate.Builder, term string) {
	if s.Search != nil {
		s.Search(b, term)
		return
	}
	b.AnyContains(s.Searchable, term)
}

func (s Strategy) applyFilters(b *predicate.Builder, filters map[string]any) {
	if s.Additional != nil {
		s.Additional(b, filters)
		return
	}
	ApplyFilters(b, s.Filters, filters)
}

// ApplyFilters adds the predicate of every recognised key in values, in
// sorted key order so generated SQL is stable.
func ApplyFilters(b *predicate.Builder, defs map[string]Filter, values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		if _, ok := defs[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		def := defs[k]
		if def.Expr != "" {
			b.AddExpr(def.Expr, values[k])
			continue
		}
		op := def.Op
		if op == "" {
			op = predicate.Eq
		}
		b.Add(def.Column, op, values[k])
	}
}
