package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Unauthenticated(""), http.StatusUnauthorized},
		{Forbidden(""), http.StatusForbidden},
		{Validation("bad input"), http.StatusBadRequest},
		{NotFound("visit"), http.StatusNotFound},
		{Conflict("taken"), http.StatusConflict},
		{Upstream(errors.New("boom")), http.StatusBadGateway},
		{PartialFailure("", nil), http.StatusInternalServerError},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestIsMatchesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("taken"))
	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))
	assert.False(t, Is(errors.New("plain"), ErrConflict))
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	appErr := From(errors.New("boom"))
	assert.Equal(t, ErrInternal, appErr.Code)

	orig := NotFound("patient")
	assert.Same(t, orig, From(orig))
}

func TestMessageHidesInternalCause(t *testing.T) {
	err := Upstream(errors.New("pq: connection refused"))
	assert.Equal(t, "upstream service failed", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
}
