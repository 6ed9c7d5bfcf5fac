package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrDatabase   = errors.New("database operation failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeNoSlots           = "NO_FUTURE_SLOTS"
	ErrCodeDuplicateActive   = "DUPLICATE_ACTIVE_RECORD"
	ErrCodeIneligibleOwner   = "INELIGIBLE_OWNER"
	ErrCodeAlreadyRenewed    = "ALREADY_RENEWED"
	ErrCodeJobRunning        = "JOB_RUNNING"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
)

// NewValidationError reports a malformed input on a specific field.
func NewValidationError(field, message string) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Field:   field,
		Err:     ErrValidation,
	}
}

// NewConflictError reports a well-formed request that the current state rejects.
func NewConflictError(code, message string) *BusinessError {
	return NewBusinessError(code, message, ErrConflict)
}

func WrapNotFound(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s with ID %s not found", entity, id),
		ErrNotFound,
	)
}

func WrapInvalidTransition(entity, status string) *BusinessError {
	return NewConflictError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("cannot change status of a %s in %s stage", entity, status),
	)
}

func WrapNoSlots(owner string) *BusinessError {
	return NewConflictError(
		ErrCodeNoSlots,
		fmt.Sprintf("%s recurrence produces no future occurrence", owner),
	)
}

func WrapDuplicateActive(entity, field, id string) *BusinessError {
	return NewConflictError(
		ErrCodeDuplicateActive,
		fmt.Sprintf("%s %s %s already has a live %s", field, id, entity, entity),
	)
}

func WrapIneligibleOwner(ownerID, status string) *BusinessError {
	return NewConflictError(
		ErrCodeIneligibleOwner,
		fmt.Sprintf("owner %s in %s stage cannot receive this reminder", ownerID, status),
	)
}

func WrapAlreadyRenewed(renewalID string) *BusinessError {
	return NewConflictError(
		ErrCodeAlreadyRenewed,
		fmt.Sprintf("renewal %s was already materialized", renewalID),
	)
}

func WrapJobRunning(job string) *BusinessError {
	return NewConflictError(
		ErrCodeJobRunning,
		fmt.Sprintf("job %s is already running", job),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		errors.Join(ErrDatabase, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
