package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"avencia-pm/internal/db/predicate"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Options selects and sizes the database.
type Options struct {
	Driver       string // DriverSQLite (default) or DriverPostgres
	Path         string // SQLite file path
	DSN          string // Postgres connection string
	ReadPoolSize int    // SQLite read pool size
	MaxOpenConns int    // Postgres pool size
}

// Database holds the connection pools for the process. SQLite uses a
// single-writer pool plus a read pool; Postgres uses one pool for both.
type Database struct {
	Write   *sql.DB
	Read    *sql.DB
	Driver  string
	Dialect predicate.Dialect
}

// Open opens the pools described by opts.
func Open(ctx context.Context, opts Options) (*Database, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		w, r, err := OpenSQLitePair(opts.Path, opts.ReadPoolSize)
		if err != nil {
			return nil, err
		}
		return &Database{Write: w, Read: r, Driver: DriverSQLite, Dialect: predicate.SQLite}, nil
	case DriverPostgres:
		pool, err := OpenPostgres(ctx, opts.DSN, opts.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		return &Database{Write: pool, Read: pool, Driver: DriverPostgres, Dialect: predicate.Postgres}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
}

// Close closes every pool.
func (d *Database) Close() error {
	if d.Read == d.Write {
		return d.Write.Close()
	}
	return errors.Join(d.Read.Close(), d.Write.Close())
}
