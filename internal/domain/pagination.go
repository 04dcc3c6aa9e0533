package domain

// DefaultPageSize is the page size when none is specified.
const DefaultPageSize = 20

// MaxPageSize is the maximum allowed page size.
const MaxPageSize = 100

// Sort directions accepted by ListFilter.SortOrder.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilter holds search, exact-match filters, pagination, and sorting for
// list operations. Filter values that are nil or blank strings are treated as
// not provided; false, 0 and "0" are real constraints.
type ListFilter struct {
	Search    string
	Filters   map[string]any
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// With returns a copy of f with key set to value. The receiver's map is not
// modified.
func (f ListFilter) With(key string, value any) ListFilter {
	filters := make(map[string]any, len(f.Filters)+1)
	for k, v := range f.Filters {
		filters[k] = v
	}
	filters[key] = value
	f.Filters = filters
	return f
}

// EffectivePage returns the 1-based page number, defaulting to 1.
func (f ListFilter) EffectivePage() int {
	if f.Page < 1 {
		return 1
	}
	return f.Page
}

// EffectiveLimit returns the page size clamped to [1, maxLimit]. A maxLimit
// of zero or less means MaxPageSize.
func (f ListFilter) EffectiveLimit(maxLimit int) int {
	if maxLimit <= 0 {
		maxLimit = MaxPageSize
	}
	if f.Limit <= 0 {
		if DefaultPageSize > maxLimit {
			return maxLimit
		}
		return DefaultPageSize
	}
	if f.Limit > maxLimit {
		return maxLimit
	}
	return f.Limit
}

// Offset returns the row offset for the effective page and limit.
func (f ListFilter) Offset(maxLimit int) int {
	return (f.EffectivePage() - 1) * f.EffectiveLimit(maxLimit)
}

// Page is one page of a filtered listing. Total counts every row matching
// the filter, independent of Page and Limit.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// TotalPages returns ceil(Total / Limit).
func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

// NewPage assembles a Page from a listing result and the filter that
// produced it.
func NewPage[T any](items []T, total int64, f ListFilter, maxLimit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  f.EffectivePage(),
		Limit: f.EffectiveLimit(maxLimit),
	}
}
