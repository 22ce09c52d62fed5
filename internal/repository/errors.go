package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// StoreErrorKind distinguishes the failure classes of the store
type StoreErrorKind int

const (
	KindNotFound StoreErrorKind = iota + 1
	KindConstraintViolation
	KindConnection
)

func (k StoreErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConstraintViolation:
		return "constraint violation"
	default:
		return "connection error"
	}
}

// Postgres SQLSTATE codes for integrity violations and rejected values
const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateCheckViolation      = "23514"
	SQLStateNotNullViolation    = "23502"
	SQLStateNumericOutOfRange   = "22003"
	SQLStateStringTooLong       = "22001"
)

// StoreError is the only error kind returned by repositories
type StoreError struct {
	Kind       StoreErrorKind
	SQLState   string
	Constraint string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

var ErrNotFound = errors.New("record not found")

func notFound(what string) error {
	return &StoreError{Kind: KindNotFound, Err: fmt.Errorf("%s: %w", what, ErrNotFound)}
}

// IsNotFound reports whether err is a NotFound store error
func IsNotFound(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == KindNotFound
}

// AsStoreError extracts the store error from err
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	ok := errors.As(err, &se)
	return se, ok
}

// mapError classifies a driver error and wraps it with context
func mapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if _, ok := AsStoreError(err); ok {
		return err
	}
	wrapped := fmt.Errorf(format+": %w", append(args, err)...)

	if errors.Is(err, sql.ErrNoRows) {
		return &StoreError{Kind: KindNotFound, Err: wrapped}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case SQLStateUniqueViolation, SQLStateForeignKeyViolation, SQLStateCheckViolation, SQLStateNotNullViolation,
			SQLStateNumericOutOfRange, SQLStateStringTooLong:
			return &StoreError{
				Kind:       KindConstraintViolation,
				SQLState:   pgErr.Code,
				Constraint: pgErr.ConstraintName,
				Err:        wrapped,
			}
		}
	}

	return &StoreError{Kind: KindConnection, Err: wrapped}
}
