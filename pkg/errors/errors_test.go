package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"conversation not found", ErrConversationNotFound, http.StatusNotFound},
		{"message not found", ErrMessageNotFound, http.StatusNotFound},
		{"user not found", ErrUserNotFound, http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", ErrTokenExpired, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not a member", ErrNotAMember, http.StatusForbidden},
		{"conflict", ErrConflict, http.StatusConflict},
		{"already member", ErrAlreadyMember, http.StatusConflict},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestHTTPStatusFromError_Wrapped(t *testing.T) {
	err := fmt.Errorf("%w: group name is required", ErrValidation)
	assert.Equal(t, http.StatusBadRequest, HTTPStatusFromError(err))

	err = fmt.Errorf("outer: %w", fmt.Errorf("%w: inner", ErrNotAMember))
	assert.Equal(t, http.StatusForbidden, HTTPStatusFromError(err))
}
