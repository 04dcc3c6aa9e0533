package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Record is one row keyed by column name.
type Record map[string]any

// ID returns the record's id column as a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// QueryRecords runs query and scans every row into a Record.
func QueryRecords(ctx context.Context, q Querier, op, query string, args ...any) ([]Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyCtx(ctx, op, err)
	}
	defer rows.Close() //nolint:errcheck

	out, err := scanRecords(rows)
	if err != nil {
		return nil, classifyCtx(ctx, op, err)
	}
	return out, nil
}

// QueryRecord runs query and returns its first row. found is false when the
// query returned no rows.
func QueryRecord(ctx context.Context, q Querier, op, query string, args ...any) (rec Record, found bool, err error) {
	recs, err := QueryRecords(ctx, q, op, query, args...)
	if err != nil {
		return nil, false, err
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs[0], true, nil
}

// Exec runs a statement and returns the number of affected rows.
func Exec(ctx context.Context, q Querier, op, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classifyCtx(ctx, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classifyCtx(ctx, op, err)
	}
	return n, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col] = normalizeValue(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeValue converts driver-specific representations into plain Go
// values: byte slices become strings and binary UUIDs their text form.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case [16]byte:
		return uuid.UUID(x).String()
	}
	return v
}
