package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors. id is whatever key
// identifies the entity (uuid or code).
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func MapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, id, err)
}
