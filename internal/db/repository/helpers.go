// Package repository implements the domain repository interfaces on top of
// the generic record store.
package repository

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"avencia-pm/internal/db/store"
	"avencia-pm/internal/domain"
)

// timeLayouts are the textual timestamp forms drivers may hand back when a
// column carries no declared type (computed or subquery columns in SQLite).
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var timeType = reflect.TypeOf(time.Time{})

func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != timeType {
		return data, nil
	}
	s := strings.TrimSuffix(data.(string), "Z")
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("unrecognised timestamp %q", s)
}

// decode maps a record onto T using its mapstructure tags.
func decode[T any](rec store.Record) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		DecodeHook:       stringToTimeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return nil, fmt.Errorf("decode %T: %w", out, err)
	}
	return &out, nil
}

func decodeAll[T any](recs []store.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// decodeFound decodes rec when found, and returns (nil, nil) otherwise.
func decodeFound[T any](rec store.Record, found bool, err error) (*T, error) {
	if err != nil || !found {
		return nil, err
	}
	return decode[T](rec)
}

func decodePage[T any](recs []store.Record, total int64, err error) ([]T, int64, error) {
	if err != nil {
		return nil, 0, err
	}
	items, err := decodeAll[T](recs)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// boolFilter interprets a filter value as a boolean. ok is false when the
// value is absent or not a boolean.
func boolFilter(v any) (b, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case *bool:
		if x != nil {
			return *x, true
		}
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return parsed, true
		}
	}
	return false, false
}

// validID reports whether id is well formed. Malformed ids match no row.
func validID(id string) bool {
	return domain.IsID(id)
}

type countRow struct {
	N int64 `mapstructure:"n"`
}

// queryCount runs a query selecting a single "n" column.
func queryCount(ctx context.Context, q store.Querier, op, query string, args ...any) (int64, error) {
	row, err := decodeFound[countRow](store.QueryRecord(ctx, q, op, query, args...))
	if err != nil || row == nil {
		return 0, err
	}
	return row.N, nil
}
