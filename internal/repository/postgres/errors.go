package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
)

// mapError converts driver-level errors into the sentinel taxonomy so
// callers never need to know the storage backend
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ierr.WithError(err).
			WithHintf("%s already exists", entity).
			Mark(ierr.ErrAlreadyExists)
	}

	return ierr.WithError(err).
		WithHintf("%s storage operation failed", entity).
		Mark(ierr.ErrDatabase)
}
