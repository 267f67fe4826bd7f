package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestStaticTokenEmpty(t *testing.T) {
	_, err := StaticToken("  ").Token(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestInspectReadsClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := signed(t, platformClaims{
		Email: "admin@academy.test",
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	s, ok := Inspect(tok)
	if !ok {
		t.Fatal("expected JWT to be inspected")
	}
	if s.Subject != "u-1" || s.Role != "admin" || s.Email != "admin@academy.test" {
		t.Errorf("session = %+v", s)
	}
	if !s.ExpiresAt.Equal(exp) {
		t.Errorf("expiresAt = %v, want %v", s.ExpiresAt, exp)
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	if _, ok := Inspect("not-a-jwt"); ok {
		t.Error("opaque token should not inspect as JWT")
	}
}

func TestWithExpiryCheck(t *testing.T) {
	now := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
	expired := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	valid := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	clock := func() time.Time { return now }

	if _, err := WithExpiryCheck(StaticToken(expired), clock).Token(context.Background()); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token err = %v, want ErrTokenExpired", err)
	}
	got, err := WithExpiryCheck(StaticToken(valid), clock).Token(context.Background())
	if err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if got != valid {
		t.Error("valid token was altered")
	}
	if _, err := WithExpiryCheck(StaticToken("opaque"), clock).Token(context.Background()); err != nil {
		t.Errorf("opaque token err = %v, want nil", err)
	}
}

func TestSessionContext(t *testing.T) {
	ctx := WithSession(context.Background(), Session{Subject: "u-2", Role: "trainer"})
	s, ok := FromContext(ctx)
	if !ok || s.Subject != "u-2" {
		t.Errorf("FromContext = %+v, %v", s, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no session on empty context")
	}
}
