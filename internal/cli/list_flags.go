package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"avencia-pm/internal/domain"
)

// listFlags are the paging, sorting and filter flags shared by list
// commands.
type listFlags struct {
	search    string
	page      int
	limit     int
	sortBy    string
	sortOrder string
	filters   []string
}

func (f *listFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.search, "search", "", "Case-insensitive text search")
	fs.IntVar(&f.page, "page", 1, "Page number (1-based)")
	fs.IntVar(&f.limit, "limit", domain.DefaultPageSize, "Page size")
	fs.StringVar(&f.sortBy, "sort-by", "", "Column to sort by")
	fs.StringVar(&f.sortOrder, "sort-order", "", "Sort direction (asc or desc)")
	fs.StringArrayVar(&f.filters, "filter", nil, "Filter as key=value (repeatable)")
}

// listFilter converts the flags into a ListFilter. Filter keys must be in
// allowed; values are parsed by their kind.
func (f *listFlags) listFilter(allowed domain.FilterKinds) (domain.ListFilter, error) {
	lf := domain.ListFilter{
		Search:    f.search,
		Page:      f.page,
		Limit:     f.limit,
		SortBy:    f.sortBy,
		SortOrder: f.sortOrder,
	}
	for _, raw := range f.filters {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return lf, fmt.Errorf("invalid --filter %q: want key=value", raw)
		}
		kind, known := allowed[key]
		if !known {
			return lf, fmt.Errorf("unknown filter %q; allowed: %s", key, strings.Join(allowed.Keys(), ", "))
		}
		if value == "" {
			continue
		}
		v, err := domain.ParseFilter(key, kind, value)
		if err != nil {
			return lf, fmt.Errorf("filter: %w", err)
		}
		lf = lf.With(key, v)
	}
	return lf, nil
}
