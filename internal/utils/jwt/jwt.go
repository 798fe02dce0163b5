package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims identifies the user and the login session a token was issued for
type Claims struct {
	UserID    string
	SessionID string
}

// CreateToken issues a signed HS256 token for the user and login session
func CreateToken(userID, sessionID, secret string) (string, error) {
	return CreateTokenWithTTL(userID, sessionID, secret, tokenTTL)
}

func CreateTokenWithTTL(userID, sessionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the claims
func ParseToken(tokenString, secret string) (Claims, error) {
	rc := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, rc, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || rc.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: rc.Subject, SessionID: rc.ID}, nil
}

// ExtractUserIDFromToken verifies the token and returns its subject
func ExtractUserIDFromToken(tokenString, secret string) (string, error) {
	claims, err := ParseToken(tokenString, secret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
