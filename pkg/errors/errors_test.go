package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewInvalidInputError("bad %s", "field"), http.StatusBadRequest},
		{"not found", NewNotFoundError("missing"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("repo: %w", ErrNotFound), http.StatusNotFound},
		{"forbidden", NewForbiddenError("no"), http.StatusForbidden},
		{"conflict", NewConflictError("dup"), http.StatusConflict},
		{"unauthorized", NewUnauthorizedError("who"), http.StatusUnauthorized},
		{"token expired", ErrTokenExpired, http.StatusUnauthorized},
		{"too many", NewTooManyRequestsError("slow down"), http.StatusTooManyRequests},
		{"http error", NewHttpError(http.StatusTeapot, "tea", nil, nil), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestKindsAreMatchable(t *testing.T) {
	err := NewConflictError("equipment scrapped")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "equipment scrapped", err.Error())

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrConflict, appErr.Kind)
}

func TestPublicMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "subject is required", PublicMessage(NewInvalidInputError("subject is required")))
	assert.Equal(t, "tea", PublicMessage(NewHttpError(http.StatusTeapot, "tea", errors.New("inner"), nil)))
}
