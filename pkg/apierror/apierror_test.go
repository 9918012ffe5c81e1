package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxonomyStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    *APIError
		code   string
		status int
	}{
		{"validation", Validation("All fields are required"), CodeValidation, http.StatusBadRequest},
		{"conflict", Conflict("User already exists"), CodeConflict, http.StatusBadRequest},
		{"unauthorized", Unauthorized("Invalid credentials"), CodeUnauthorized, http.StatusUnauthorized},
		{"not found", NotFound("User not found"), CodeNotFound, http.StatusNotFound},
		{"internal", Internal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.HTTPStatus)
		})
	}
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("pq: connection refused")
	err := Internal(cause)

	require.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Message, "connection refused")
}

func TestWrapDoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	base := Unauthorized("Invalid credentials")
	wrapped := base.Wrap(errors.New("password mismatch"))

	assert.Nil(t, base.Cause)
	assert.NotNil(t, wrapped.Cause)
}

func TestAsFindsWrappedAPIError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("register: %w", Conflict("User already exists"))

	apiErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, apiErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
