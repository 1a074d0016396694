package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndValidate(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	token, err := s.Issue("ops", true, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.Admin)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestValidate_Rejects(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)
	other, err := NewSigner(strings.Repeat("x", MinSecretLen))
	require.NoError(t, err)

	foreign, err := other.Issue("ops", true, time.Hour)
	require.NoError(t, err)
	_, err = s.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Истёкший токен
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := s.Issue("ops", true, time.Hour)
	require.NoError(t, err)
	s.now = time.Now
	_, err = s.Validate(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Чужой издатель
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.Validate(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSigner(t *testing.T) {
	_, err := NewSigner("short")
	assert.ErrorIs(t, err, ErrShortSecret)

	s, err := NewSigner("")
	require.NoError(t, err)
	token, err := s.Issue("ops", false, time.Minute)
	require.NoError(t, err)
	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.False(t, claims.Admin)
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	_, err = NewSigner(secret)
	assert.NoError(t, err)
}
