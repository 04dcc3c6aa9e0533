package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"avencia-pm/internal/domain"
)

// Postgres SQLSTATE codes for integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// Classify converts a driver error into the domain taxonomy: cancellation
// and deadline errors become CancelledError and TimeoutError, everything
// else a StorageError carrying the cause. Domain errors pass through.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if ce := domain.ClassifyContextError(op, err); ce != nil {
		return ce
	}
	if isDomainError(err) {
		return err
	}
	return &domain.StorageError{Op: op, Constraint: constraintKind(err), Err: err}
}

func isDomainError(err error) bool {
	var (
		se *domain.StorageError
		ve *domain.ValidationError
		ce *domain.CancelledError
		te *domain.TimeoutError
	)
	return errors.As(err, &se) || errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &te)
}

func constraintKind(err error) domain.ConstraintKind {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return domain.ConstraintUnique
		case sqlite3.ErrConstraintForeignKey:
			return domain.ConstraintForeignKey
		case sqlite3.ErrConstraintCheck:
			return domain.ConstraintCheck
		case sqlite3.ErrConstraintNotNull:
			return domain.ConstraintNotNull
		}
		return domain.ConstraintNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ConstraintUnique
		case pgForeignKeyViolation:
			return domain.ConstraintForeignKey
		case pgCheckViolation:
			return domain.ConstraintCheck
		case pgNotNullViolation:
			return domain.ConstraintNotNull
		}
	}
	return domain.ConstraintNone
}
