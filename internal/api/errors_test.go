package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glideclouds/taskboard-api/internal/generation"
	"github.com/glideclouds/taskboard-api/internal/service/auth"
	"github.com/glideclouds/taskboard-api/internal/service/board"
	"github.com/glideclouds/taskboard-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", board.ErrForbidden, http.StatusForbidden},
		{"wrapped forbidden", fmt.Errorf("%w: assigned tasks cannot be deleted", board.ErrForbidden), http.StatusForbidden},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: task status changed; refresh and retry", board.ErrConflict), http.StatusConflict},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"invalid request", fmt.Errorf("%w: label is required", board.ErrInvalidRequest), http.StatusBadRequest},
		{"empty goal", generation.ErrEmptyGoal, http.StatusBadRequest},
		{"content blocked", generation.ErrContentBlocked, http.StatusUnprocessableEntity},
		{"transient generation failure", generation.ErrTransientFailure, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("internal detail does not leak", func(t *testing.T) {
		t.Parallel()
		err := errors.New("pq: connection refused at 10.0.0.3:5432")
		msg := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", msg)
	})

	t.Run("conflict message passes through", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("%w: task status changed; refresh and retry", board.ErrConflict)
		assert.Contains(t, GetSafeErrorMessage(err), "refresh and retry")
	})

	t.Run("not found by entity", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Task not found", GetSafeErrorMessage(store.ErrTaskNotFound))
		assert.Equal(t, "User not found", GetSafeErrorMessage(store.ErrUserNotFound))
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	})
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := errors.New(
		"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag",
	)
	assert.Equal(t, "Invalid Email: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("random failure")))
}
