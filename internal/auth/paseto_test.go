package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewPasetoServiceRejectsBadKey(t *testing.T) {
	_, err := NewPasetoService([]byte("too short"), 24*time.Hour)
	require.Error(t, err)
}

func TestCreateAndVerifyToken(t *testing.T) {
	svc, err := NewPasetoService(testKey, 24*time.Hour)
	require.NoError(t, err)

	token, err := svc.CreateToken("jo@x.com")
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "jo@x.com", claims.Subject)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, claims.IssuedAt.Add(24*time.Hour), claims.ExpiresAt, time.Second)
}

func TestVerifyTokenExpired(t *testing.T) {
	svc, err := NewPasetoService(testKey, -time.Hour)
	require.NoError(t, err)

	token, err := svc.CreateToken("jo@x.com")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTokenTampered(t *testing.T) {
	svc, err := NewPasetoService(testKey, 24*time.Hour)
	require.NoError(t, err)

	token, err := svc.CreateToken("jo@x.com")
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = svc.VerifyToken(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenWrongKey(t *testing.T) {
	svc, err := NewPasetoService(testKey, 24*time.Hour)
	require.NoError(t, err)

	otherKey := []byte("fedcba9876543210fedcba9876543210")
	other, err := NewPasetoService(otherKey, 24*time.Hour)
	require.NoError(t, err)

	token, err := svc.CreateToken("jo@x.com")
	require.NoError(t, err)

	// A restart with different key material invalidates outstanding tokens.
	_, err = other.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	svc, err := NewPasetoService(testKey, 24*time.Hour)
	require.NoError(t, err)

	_, err = svc.VerifyToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
