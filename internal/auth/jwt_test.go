package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner("test-secret", time.Hour)

	token, err := s.GenerateToken(7, "anna", "admin")
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "anna", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestSigner_RejectsOtherSecret(t *testing.T) {
	token, err := NewSigner("one", time.Hour).GenerateToken(1, "anna", "admin")
	require.NoError(t, err)

	_, err = NewSigner("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestSigner_RejectsExpired(t *testing.T) {
	s := NewSigner("test-secret", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := s.GenerateToken(1, "anna", "admin")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSigner_RejectsGarbage(t *testing.T) {
	_, err := NewSigner("test-secret", time.Hour).ValidateToken("not.a.token")
	assert.Error(t, err)
}
