package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, secret []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestUserID_ValidToken(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "auth0|user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	userID, err := v.UserID(tokenString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "auth0|user-42" {
		t.Errorf("userID = %q, want auth0|user-42", userID)
	}
}

func TestUserID_WrongSecret(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, []byte("another-secret-another-secret-xx"), jwt.RegisteredClaims{
		Subject: "auth0|user-42",
	})

	if _, err := v.UserID(tokenString); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestUserID_Expired(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "auth0|user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	if _, err := v.UserID(tokenString); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestUserID_NoSubject(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	if _, err := v.UserID(tokenString); err == nil {
		t.Error("expected error for token without a subject claim")
	}
}

func TestFromRequest(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "auth0|abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	r := httptest.NewRequest("GET", "/api/collection", nil)
	r.Header.Set("Authorization", "Bearer "+tokenString)

	userID, err := v.FromRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "auth0|abc" {
		t.Errorf("userID = %q, want auth0|abc", userID)
	}
}

func TestFromRequest_MissingHeader(t *testing.T) {
	v := NewVerifier(testSecret)
	r := httptest.NewRequest("GET", "/api/collection", nil)

	if _, err := v.FromRequest(r); err != ErrNoToken {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestFromRequest_MalformedHeader(t *testing.T) {
	v := NewVerifier(testSecret)
	r := httptest.NewRequest("GET", "/api/collection", nil)
	r.Header.Set("Authorization", "Token abc123")

	if _, err := v.FromRequest(r); err != ErrNoToken {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}
