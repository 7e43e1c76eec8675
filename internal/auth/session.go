// Package auth verifies the bearer tokens that identify collection owners.
//
// Tokens are HS256-signed JWTs issued by the frontend's identity provider;
// the subject claim carries the user ID that keys both DynamoDB tables.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when the request carries no Authorization header.
var ErrNoToken = errors.New("missing bearer token")

// Verifier validates session tokens and extracts the user ID.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier with the given HMAC secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// UserID validates the token string and returns its subject claim.
func (v *Verifier) UserID(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token has no subject claim")
	}
	return claims.Subject, nil
}

// FromRequest extracts and validates the bearer token from an HTTP request.
// Returns ErrNoToken when the Authorization header is absent or malformed.
func (v *Verifier) FromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", ErrNoToken
	}
	return v.UserID(tokenString)
}
