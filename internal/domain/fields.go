package domain

import "time"

// Fields is a set of column values for an insert or a partial update. Keys
// are column names; the store assigns id, created_at and updated_at itself.
type Fields map[string]any

// SetIfNotNil stores *v under name when v is non-nil.
func SetIfNotNil[T any](f Fields, name string, v *T) {
	if v != nil {
		f[name] = *v
	}
}

// SetIfNotEmpty stores v under name when v is not the empty string.
func SetIfNotEmpty[T ~string](f Fields, name string, v T) {
	if v != "" {
		f[name] = string(v)
	}
}

// SetTimeIfNotNil stores *v, converted to UTC, under name when v is non-nil.
func SetTimeIfNotNil(f Fields, name string, v *time.Time) {
	if v != nil {
		f[name] = v.UTC()
	}
}
