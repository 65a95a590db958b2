package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientWrapsOnlyUnclassified(t *testing.T) {
	assert.Nil(t, Transient(nil))
	assert.Same(t, ErrNotFound, Transient(ErrNotFound))

	conflict := &ConflictError{Reason: ReasonRetry}
	assert.Same(t, conflict, Transient(conflict).(*ConflictError))

	cause := errors.New("connection reset")
	err := Transient(cause)
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, Transient(err))
}

func TestIsClassifiedSeesWrappedSentinels(t *testing.T) {
	assert.True(t, IsClassified(fmt.Errorf("order 4: %w", ErrNotFound)))
	assert.False(t, IsClassified(errors.New("boom")))
}

func TestValidationErrorKeepsFirstMessage(t *testing.T) {
	ve := NewValidationError("Login", "login taken")
	ve.Add("Login", "too long")
	ve.Add("", "form problem")

	assert.False(t, ve.Empty())
	assert.Equal(t, "login taken", ve.Fields["Login"])
	assert.Equal(t, "validation failed: form problem; Login: login taken", ve.Error())

	var nilErr *ValidationError
	assert.True(t, nilErr.Empty())
}
