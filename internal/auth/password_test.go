package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndCompare(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("Password1")
	require.NoError(t, err)
	second, err := h.Hash("Password1")
	require.NoError(t, err)

	assert.NotEqual(t, "Password1", first)
	assert.NotEqual(t, first, second, "salt must differ per hash")

	assert.NoError(t, h.Compare(first, "Password1"))
	assert.ErrorIs(t, h.Compare(first, "Password2"), ErrPasswordMismatch)
	assert.ErrorIs(t, h.Compare("", "Password1"), ErrPasswordMismatch)
}

func TestNewPasswordHasher_OutOfRangeCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 10, NewPasswordHasher(10).cost)
}
