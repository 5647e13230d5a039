// pkg/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HMAC key length accepted for HS256.
const MinSecretLength = 32

const issuer = "beetle-movies"

// TokenManager generates and validates JWT tokens.
type TokenManager interface {
	Generate(subject string, role string) (string, error)
	Validate(tokenString string) (*Claims, error)
}

type jwtManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// Claims are the data carried by a token. The subject lives in
// RegisteredClaims.Subject.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenManager creates an HS256 token manager.
func NewTokenManager(secretKey string, tokenDuration time.Duration) (TokenManager, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	if len(secretKey) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret key is too short: need at least %d bytes for HS256", MinSecretLength)
	}
	return &jwtManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}, nil
}

// Generate creates a signed token for the subject and role.
func (m *jwtManager) Generate(subject string, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks the signature and expiry and returns the claims.
func (m *jwtManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
