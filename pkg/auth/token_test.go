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

func TestNewTokenManager_RejectsWeakSecrets(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager(testSecret, time.Hour)
	assert.NoError(t, err)
}

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := tm.Generate("editor-42", "editor")
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "editor-42", claims.Subject)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm, err := NewTokenManager(testSecret, -time.Minute)
	require.NoError(t, err)

	token, err := tm.Generate("editor-42", "editor")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	signer, err := NewTokenManager(strings.Repeat("x", MinSecretLength), time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := signer.Generate("editor-42", "editor")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = tm.Validate("not-a-token")
	assert.Error(t, err)
}
