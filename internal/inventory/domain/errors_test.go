package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnavailable(t *testing.T) {
	require.NoError(t, Unavailable("lookup", nil))

	err := Unavailable("lookup", errors.New("connection refused"))
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Contains(t, err.Error(), "connection refused")

	require.Equal(t, ErrNotFound, Unavailable("delete", ErrNotFound))
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError(map[string]string{"name": "required", "category": "required"})
	require.Equal(t, "validation failed: category: required, name: required", err.Error())
	require.ErrorIs(t, err, ErrValidation)
}
