package kling

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenValidity  = 30 * time.Minute
	tokenClockSkew = 5 * time.Second
)

// SignToken mints the short-lived bearer token the Kling API expects: HS256
// with iss set to the access key, exp 30 minutes out and nbf 5 seconds in the
// past to tolerate clock skew. Tokens are never cached; every outbound call
// signs a fresh one.
func SignToken(accessKey, secretKey string, now time.Time) (string, error) {
	if accessKey == "" || secretKey == "" {
		return "", fmt.Errorf("kling: access key and secret key must be set")
	}

	claims := jwt.RegisteredClaims{
		Issuer:    accessKey,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenValidity)),
		NotBefore: jwt.NewNumericDate(now.Add(-tokenClockSkew)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("kling: failed to sign token: %w", err)
	}
	return signed, nil
}
