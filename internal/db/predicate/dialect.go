package predicate

import "strconv"

// Dialect renders the database-specific parts of a predicate.
type Dialect interface {
	// Name identifies the dialect ("sqlite", "postgres").
	Name() string
	// Placeholder returns the SQL text binding the nth argument (1-based).
	Placeholder(n int) string
	// ContainsFold returns a case-insensitive LIKE test of column against a
	// pattern bound at placeholder. Patterns use backslash as escape.
	ContainsFold(column, placeholder string) string
}

// SQLite numbers placeholders as ?N, which SQLite binds by index regardless
// of where they appear in the statement.
var SQLite Dialect = sqliteDialect{}

// Postgres numbers placeholders as $N.
var Postgres Dialect = postgresDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Placeholder(n int) string { return "?" + strconv.Itoa(n) }

func (sqliteDialect) ContainsFold(column, placeholder string) string {
	return "LOWER(" + column + ") LIKE LOWER(" + placeholder + `) ESCAPE '\'`
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) ContainsFold(column, placeholder string) string {
	return column + " ILIKE " + placeholder + ` ESCAPE '\'`
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, bool) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, true
	case "pgx", "postgres":
		return Postgres, true
	}
	return nil, false
}
