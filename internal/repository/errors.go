package repository

import (
	"errors"
	"fmt"

	"taskflow/internal/policy"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common repository errors
var (
	// ErrNotFound is returned when a row does not exist or is not visible to the requester
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when a write fails a row policy check
	ErrPermissionDenied = policy.ErrPermissionDenied

	// ErrConflict is returned on a unique constraint violation
	ErrConflict = errors.New("already exists")

	// ErrInvalidReference is returned when a foreign key points at a missing row
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidArgument is returned on a check constraint violation or a forbidden state change
	ErrInvalidArgument = errors.New("invalid argument")
)

// Postgres SQLSTATE codes that map onto repository errors.
const (
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
	pgCheckViolation        = "23514"
	pgInsufficientPrivilege = "42501"
)

// mapError translates driver and gorm errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s", ErrInvalidArgument, pgErr.ConstraintName)
		case pgInsufficientPrivilege:
			return ErrPermissionDenied
		}
	}
	return err
}
