package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("store: find user: %w", NotFound("User"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrap: %w", Conflict("User already exists"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindPaymentIncomplete, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindUpstream, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	up := Upstream("stripe: retrieve session", errors.New("connection reset by peer"))
	assert.Equal(t, "Internal server error", PublicMessage(up))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("boom")))
	assert.Equal(t, "Invalid credentials", PublicMessage(InvalidCredentials()))
}

func TestError_IncludesCause(t *testing.T) {
	err := Internal("saving user", errors.New("disk full"))
	assert.Equal(t, "saving user: disk full", err.Error())
	assert.ErrorIs(t, err, ErrInternal)
}
