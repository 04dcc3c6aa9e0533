package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"avencia-pm/internal/domain"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// --- responses ---

// Error is the JSON body of every error response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Pagination describes the page returned in a list envelope.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

type listEnvelope struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataEnvelope{Data: v})
}

// writePage writes a list envelope, converting each item with conv.
func writePage[T, R any](w http.ResponseWriter, p domain.Page[T], conv func(T) R) {
	writeJSON(w, http.StatusOK, listEnvelope{
		Data: mapSlice(p.Items, conv),
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages(),
		},
	})
}

func mapSlice[T, R any](items []T, conv func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = conv(item)
	}
	return out
}

// --- requests ---

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation("request body is required")
		}
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// listFilter builds a ListFilter from the query string. Unknown parameters
// are ignored; malformed numbers, booleans and timestamps are validation
// errors. The limit is clamped to maxLimit.
func listFilter(r *http.Request, allowed domain.FilterKinds, maxLimit int) (domain.ListFilter, error) {
	q := r.URL.Query()
	f := domain.ListFilter{
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &f.Page); err != nil {
		return f, domain.ErrValidation("invalid page: %v", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &f.Limit); err != nil {
		return f, domain.ErrValidation("invalid limit: %v", err)
	}
	f.Limit = clampLimit(f.Limit, maxLimit)

	for name, kind := range allowed {
		if !q.Has(name) {
			continue
		}
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := domain.ParseFilter(name, kind, raw)
		if err != nil {
			return f, err
		}
		f = f.With(name, v)
	}
	return f, nil
}

func clampLimit(limit, maxLimit int) int {
	if maxLimit <= 0 || maxLimit > domain.MaxPageSize {
		maxLimit = domain.MaxPageSize
	}
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	return min(limit, maxLimit)
}

func queryInt(r *http.Request, name string) (int, error) {
	var v int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return 0, domain.ErrValidation("invalid %s: %v", name, err)
	}
	return v, nil
}
