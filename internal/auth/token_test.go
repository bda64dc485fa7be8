package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-sessions"

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("")
	assert.Error(t, err)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)

	token, err := svc.Issue("user-1", "a@x.com", "Ana")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Ana", claims.Name)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenService_VerifyRejects(t *testing.T) {
	svc, err := NewTokenService(testSecret)
	require.NoError(t, err)
	other, err := NewTokenService("another-secret-value")
	require.NoError(t, err)

	foreign, err := other.Issue("user-1", "a@x.com", "Ana")
	require.NoError(t, err)

	good, err := svc.Issue("user-1", "a@x.com", "Ana")
	require.NoError(t, err)
	goodParts := strings.Split(good, ".")
	foreignParts := strings.Split(foreign, ".")
	tampered := goodParts[0] + "." + goodParts[1] + "." + foreignParts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"tampered":      tampered,
		"alg none":      noneToken,
		"no expiration": noExp,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Verify(tok)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := issuedAt
	svc, err := NewTokenService(testSecret, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	token, err := svc.Issue("user-1", "a@x.com", "Ana")
	require.NoError(t, err)

	now = issuedAt.Add(DefaultTTL - time.Minute)
	_, err = svc.Verify(token)
	require.NoError(t, err)

	now = issuedAt.Add(DefaultTTL + time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
