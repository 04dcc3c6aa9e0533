package predicate

import (
	"strings"

	"avencia-pm/internal/domain"
)

// Sort maps the sort keys an entity allows onto qualified columns.
type Sort struct {
	// Allowed maps request sort keys ("name") to SQL columns ("u.name").
	Allowed map[string]string
	// Default is the key used when none is requested.
	Default string
	// TieBreak is appended to every ORDER BY so paging is deterministic
	// when the sort column has duplicates. Usually the primary key.
	TieBreak string
}

// Clause returns the ORDER BY expression (without the keywords) for the
// requested key and direction. Unknown keys or directions are rejected, never
// interpolated. Empty values select the default key and descending order.
func (s Sort) Clause(sortBy, sortOrder string) (string, error) {
	key := strings.TrimSpace(sortBy)
	if key == "" {
		key = s.Default
	}
	col, ok := s.Allowed[key]
	if !ok {
		return "", domain.ErrValidation("cannot sort by %q", sortBy)
	}

	dir := "DESC"
	switch strings.ToLower(strings.TrimSpace(sortOrder)) {
	case "", domain.SortDesc:
	case domain.SortAsc:
		dir = "ASC"
	default:
		return "", domain.ErrValidation("sort_order must be %q or %q, got %q", domain.SortAsc, domain.SortDesc, sortOrder)
	}

	clause := col + " " + dir
	if s.TieBreak != "" && s.TieBreak != col {
		clause += ", " + s.TieBreak + " " + dir
	}
	return clause, nil
}
