package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level errors repository implementations bubble up.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	// ErrBadQuery means a filter value reached the store in a form it cannot interpret.
	ErrBadQuery = errors.New("bad query")
	// ErrUpstream marks failures of a remote data source (portal API).
	ErrUpstream = errors.New("upstream unavailable")
)

// MapPgError translates common Postgres error codes to domain errors.
// Everything not handled explicitly at higher layers passes through.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrAlreadyExists
		case pgerrcode.ForeignKeyViolation, pgerrcode.CheckViolation:
			return ErrConflict
		case pgerrcode.InvalidDatetimeFormat, pgerrcode.DatetimeFieldOverflow:
			return ErrBadQuery
		}
	}
	return err
}
