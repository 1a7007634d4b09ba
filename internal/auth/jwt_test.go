package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deediq/internal/apperror"
)

func TestGenerateAndValidateToken(t *testing.T) {
	issuer := NewIssuer("test-secret")

	token, err := issuer.GenerateToken("user-1", "nashvegas")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "nashvegas", claims.Username)
	assert.Equal(t, "user-1", claims.Subject)

	caller, err := issuer.Caller(token)
	require.NoError(t, err)
	assert.Equal(t, Caller{UserID: "user-1", Username: "nashvegas"}, caller)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret")

	token, err := issuer.GenerateTokenWithExpiry("user-1", "old", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = issuer.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewIssuer("secret-a").GenerateToken("user-1", "a")
	require.NoError(t, err)

	caller, err := NewIssuer("secret-b").Caller(token)
	assert.Error(t, err)
	assert.False(t, caller.Authenticated())
}

func TestValidateTokenRejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("test-secret").ValidateToken(signed)
	assert.Error(t, err)
}

func TestCallerContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Anonymous, CallerFromContext(ctx))

	ctx = WithCaller(ctx, Caller{UserID: "u1", Username: "memphis"})
	assert.Equal(t, "u1", CallerFromContext(ctx).UserID)
}

func TestCallerRequire(t *testing.T) {
	err := Anonymous.Require()
	assert.True(t, errors.Is(err, apperror.ErrAuth))
	assert.NoError(t, Caller{UserID: "u1"}.Require())
}
