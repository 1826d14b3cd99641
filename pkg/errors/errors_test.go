package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("index missing")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "search failed", Err: inner}
	assert.Equal(t, "INTERNAL_ERROR: search failed: index missing", appErr.Error())

	plain := &AppError{Code: "NOT_FOUND", Message: "gone"}
	assert.Equal(t, "NOT_FOUND: gone", plain.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "p-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"invalid input", InvalidInput("bad body"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"invalid parameter", InvalidParameter("sort", "unknown"), "INVALID_PARAMETER", http.StatusBadRequest, ErrInvalidInput},
		{"unavailable", Unavailable("elasticsearch", errors.New("dial")), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
		{"upstream", Upstream("catalog failed", errors.New("502")), "UPSTREAM_ERROR", http.StatusBadGateway, ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestInvalidParameter_Message(t *testing.T) {
	assert.Equal(t, "min_price: must be a number", InvalidParameter("min_price", "must be a number").Message)
}

func TestHTTPStatus_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NotFound("product", "p-1"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(fmt.Errorf("x: %w", ErrInvalidInput)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestInternal_PreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestInvalidCause_KeepsChain(t *testing.T) {
	cause := fmt.Errorf("%w: min above max", errSentinelForTest)
	err := InvalidCause(cause)

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, cause.Error(), err.Message)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, errSentinelForTest)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

var errSentinelForTest = errors.New("invalid filter")
