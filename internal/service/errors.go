package service

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

// lookupError maps a repository read failure to a business error.
func lookupError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapNotFound(entity, id.String())
	}
	return customError.WrapDatabaseError(err)
}

// passThrough keeps business errors intact and wraps anything else as a
// database failure.
func passThrough(err error) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return customError.WrapDatabaseError(err)
}
