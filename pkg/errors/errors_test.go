package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("start_time", "must be before end_time")

	assert.True(t, IsValidation(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, "start_time", err.Field)
	assert.Contains(t, err.Error(), "start_time: must be before end_time")
}

func TestWrapInvalidTransition(t *testing.T) {
	err := WrapInvalidTransition("lease", "cancelled")

	assert.True(t, IsConflict(err))
	assert.Equal(t, "cannot change status of a lease in cancelled stage", err.Message)
}

func TestKindsSurviveWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "not found", err: WrapNotFound("lease", "abc"), check: IsNotFound},
		{name: "no slots", err: WrapNoSlots("program"), check: IsConflict},
		{name: "duplicate", err: WrapDuplicateActive("lease", "flat", "f1"), check: IsConflict},
		{name: "ineligible", err: WrapIneligibleOwner("o1", "draft"), check: IsConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDatabaseError(cause)

	assert.ErrorIs(t, err, ErrDatabase)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeDatabaseError, err.Code)
}
