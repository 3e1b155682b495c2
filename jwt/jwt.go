// Package jwt issues and verifies the HMAC-signed tokens used for sessions
// and password reset links.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails signature, expiry,
// purpose or subject checks.
var ErrInvalidToken = errors.New("invalid token")

// Purpose separates session tokens from single-use reset tokens so that one
// can never be replayed as the other.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "reset"
)

const issuer = "tourbook"

// Claims are the custom claims carried by every token.
type Claims struct {
	UserUUID uuid.UUID `json:"uid"`
	Purpose  Purpose   `json:"purpose"`
	jwtlib.RegisteredClaims
}

// GenerateToken signs a token for userID valid for ttl.
func GenerateToken(userID uuid.UUID, purpose Purpose, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		UserUUID: userID,
		Purpose:  purpose,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a session token and returns its claims.
func ValidateToken(token, secret string) (*Claims, error) {
	return ValidatePurpose(token, secret, PurposeSession)
}

// ValidatePurpose verifies a token issued for the given purpose.
func ValidatePurpose(token, secret string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (any, error) {
		return []byte(secret), nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, purpose, claims.Purpose)
	}
	if claims.UserUUID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
