package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKeepsIntent(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage(cause, "unable to read schedule")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrStorageUnavailable.Code, err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.Equal(t, "unable to read schedule: connection refused", err.Error())
}

func TestFromErrorNormalises(t *testing.T) {
	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)

	typed := Clone(ErrConflict, "already validated")
	assert.Same(t, typed, FromError(typed))
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsLeavesOriginalUntouched(t *testing.T) {
	details := map[string]int{"violations": 2}
	err := WithDetails(ErrConflict, details)

	assert.Equal(t, details, err.Details)
	assert.Nil(t, ErrConflict.Details)
	assert.Nil(t, WithDetails(nil, details))
}

func TestIsMatchesClonesByCode(t *testing.T) {
	err := fmt.Errorf("commit draft d1: %w", Clone(ErrPreconditionFailed, "history already holds rows for 2025-03-03"))

	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, Storage(errors.New("timeout"), "unable to append history"), ErrStorageUnavailable)
}
