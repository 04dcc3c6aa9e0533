package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// FilterKind says how a raw filter value from a query string or a command
// line flag is parsed.
type FilterKind int

// FilterKind constants.
const (
	FilterString FilterKind = iota
	FilterBool
	FilterTime
)

// FilterKinds names the entity filters a list operation accepts.
type FilterKinds map[string]FilterKind

// Keys returns the filter names in sorted order.
func (k FilterKinds) Keys() []string {
	keys := make([]string, 0, len(k))
	for name := range k {
		keys = append(keys, name)
	}
	slices.Sort(keys)
	return keys
}

// Filters accepted by each entity's list operation.
var (
	UserFilterKinds = FilterKinds{
		"status":     FilterString,
		"department": FilterString,
		"role":       FilterString,
		"is_active":  FilterBool,
	}
	ProjectFilterKinds = FilterKinds{
		"status":     FilterString,
		"priority":   FilterString,
		"created_by": FilterString,
		"member":     FilterString,
		"archived":   FilterBool,
	}
	TaskFilterKinds = FilterKinds{
		"status":         FilterString,
		"priority":       FilterString,
		"project_id":     FilterString,
		"assigned_to":    FilterString,
		"created_by":     FilterString,
		"parent_task_id": FilterString,
		"tag":            FilterString,
		"due_from":       FilterTime,
		"due_to":         FilterTime,
	}
	ActivityFilterKinds = FilterKinds{
		"user_id":     FilterString,
		"entity_type": FilterString,
		"entity_id":   FilterString,
		"action":      FilterString,
		"since":       FilterTime,
	}
)

// ParseFilter converts raw into the value stored in ListFilter.Filters.
// Times are RFC 3339 or YYYY-MM-DD and come back in UTC.
func ParseFilter(key string, kind FilterKind, raw string) (any, error) {
	switch kind {
	case FilterBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, ErrValidation("%s must be a boolean, got %q", key, raw)
		}
		return b, nil
	case FilterTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, ErrValidation("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date, got %q", key, raw)
		}
		return t, nil
	default:
		return raw, nil
	}
}
