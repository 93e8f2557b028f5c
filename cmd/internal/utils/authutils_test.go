package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v, err := NewTokenVerifier("test-secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := v.IssueToken("collector-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	data, err := v.ValidateToken("Bearer " + token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if data.Sub != "collector-1" || data.Exp == 0 {
		t.Fatalf("unexpected token data: %+v", data)
	}
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v, _ := NewTokenVerifier("test-secret")
	other, _ := NewTokenVerifier("other-secret")

	expired, _ := v.IssueToken("c", -time.Minute)
	foreign, _ := other.IssueToken("c", time.Hour)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "c"}).SignedString([]byte("test-secret"))

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "Bearer not-a-token",
		"expired": expired,
		"foreign": foreign,
		"no exp":  noExp,
	} {
		if _, err := v.ValidateToken(token); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}

	if _, err := NewTokenVerifier("  "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}
