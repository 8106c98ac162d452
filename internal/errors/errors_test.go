package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs_MatchesByCode(t *testing.T) {
	err := Validation("file is not a PDF")
	assert.True(t, Is(err, ErrValidation))
	assert.False(t, Is(err, ErrIngestion))
}

func TestErrorIs_SurvivesWrapping(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ErrStorage.WithCause(cause)

	assert.True(t, Is(err, ErrStorage))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, cause, Unwrap(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeLimitExceeded, http.StatusForbidden},
		{CodeIngestion, http.StatusUnprocessableEntity},
		{CodeUnsupported, http.StatusNotImplemented},
		{CodeStorage, http.StatusInternalServerError},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.code.HTTPStatus(), "code %s", tt.code)
	}
}

func TestWithDetails_PreservesCode(t *testing.T) {
	err := ErrLimitExceeded.WithDetails(map[string]int{"limit": 3})
	assert.True(t, Is(err, ErrLimitExceeded))
	assert.NotNil(t, err.Details)
}
