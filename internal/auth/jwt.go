package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTManager issues and validates the HS256 access tokens that guard the
// operator API. Tokens are minted out of band (cmd/token); the service only
// validates them.
type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager creates a new JWT manager.
// secret must be at least 32 characters for HS256 security.
func NewJWTManager(secret string, issuer string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// GenerateAccessToken creates a signed token with the operator ID as subject
// and role as a custom claim.
func (m *JWTManager) GenerateAccessToken(operatorID uuid.UUID, role string) (string, error) {
	if err := CheckRole(role); err != nil {
		return "", err
	}

	now := m.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID.String(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken parses and validates a token.
// Returns the operator ID and role if valid.
func (m *JWTManager) ValidateAccessToken(tokenString string) (uuid.UUID, string, error) {
	if tokenString == "" {
		return uuid.Nil, "", fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return uuid.Nil, "", fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != m.issuer {
		return uuid.Nil, "", fmt.Errorf("invalid issuer: expected %s, got %s", m.issuer, claims.Issuer)
	}

	operatorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid subject UUID: %w", err)
	}

	if err := CheckRole(claims.Role); err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid role claim: %w", err)
	}

	return operatorID, claims.Role, nil
}

// ValidateToken adapts ValidateAccessToken to the HTTP auth middleware.
func (m *JWTManager) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	return m.ValidateAccessToken(token)
}
