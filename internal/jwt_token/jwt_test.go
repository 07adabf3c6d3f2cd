package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd/pkg/domain"
	dErrors "avd/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer", "test-audience")

var actor = domain.Actor{ID: 42, Name: "Ana", Email: "ana@example.com", Role: domain.RoleHR}

func Test_GenerateAndValidate(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(actor, time.Hour)
	require.NoError(t, err)

	got, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, *got)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(actor, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", err.Error())
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "other-audience")
	token, err := other.GenerateAccessToken(actor, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_UnknownRole(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
		Role:   "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
