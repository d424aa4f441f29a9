package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueProducesVerifiableToken(t *testing.T) {
	issuer, err := NewIssuer("ops-secret")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	issued, err := issuer.Issue("scheduler", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.TokenID == "" || time.Until(issued.ExpiresAt) <= 0 {
		t.Fatalf("unexpected issued %+v", issued)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})).ParseWithClaims(issued.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("ops-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	if sub, _ := claims.GetSubject(); sub != "scheduler" {
		t.Fatalf("unexpected subject %q", sub)
	}
	if claims["jti"] != issued.TokenID {
		t.Fatalf("jti mismatch")
	}
}

func TestIssueDefaultsAndValidation(t *testing.T) {
	if _, err := NewIssuer("  "); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}

	issuer, _ := NewIssuer("s")
	fixed := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	issued, err := issuer.Issue("ops", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued.ExpiresAt.Equal(fixed.Add(24 * time.Hour)) {
		t.Fatalf("expected 24h default ttl, got %v", issued.ExpiresAt)
	}
	if _, err := issuer.Issue(" ", time.Hour); err == nil {
		t.Fatalf("expected subject error")
	}
}
