package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := Clone(ErrConflict, "room already booked")
	assert.Same(t, typed, FromError(fmt.Errorf("adjust: %w", typed)))

	plain := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.ErrorIs(t, plain, sql.ErrConnDone)
}

func TestCloneMatchesTemplate(t *testing.T) {
	clone := Clone(ErrValidation, "slots_per_day must be 4 or 5")

	assert.Equal(t, "slots_per_day must be 4 or 5", clone.Error())
	assert.True(t, errors.Is(clone, ErrValidation))
	assert.False(t, errors.Is(clone, ErrConflict))
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestWrapMessage(t *testing.T) {
	err := Wrap(sql.ErrNoRows, ErrInternal.Code, ErrInternal.Status, "failed to load rooms")
	assert.Equal(t, "failed to load rooms: sql: no rows in result set", err.Error())
}
