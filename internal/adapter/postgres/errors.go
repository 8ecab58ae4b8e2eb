package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// SQLSTATE codes that map onto domain errors.
var pgCodes = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation
	"23503": domain.ErrNotFound,      // foreign_key_violation
	"23502": domain.ErrValidation,    // not_null_violation
	"23514": domain.ErrValidation,    // check_violation
	"22001": domain.ErrValidation,    // string_data_right_truncation
	"22P02": domain.ErrValidation,    // invalid_text_representation
}

// MapError labels err with the record it concerns and translates pgx
// failures to domain sentinels. Context errors stay as they are, wrapped.
func MapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	cause := err
	if errors.Is(err, pgx.ErrNoRows) {
		cause = domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := pgCodes[pgErr.Code]; ok {
			cause = mapped
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, cause)
}
