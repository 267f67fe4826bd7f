package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("auth: no bearer token")
	ErrTokenExpired = errors.New("auth: bearer token expired")
)

// TokenSource supplies the bearer token attached to every API call. It is
// injected into the client; retrieval and refresh live outside this module.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, typically read from configuration.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return "", ErrNoToken
	}
	return s, nil
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Session describes who a token was issued to. Only unverified claims are
// read; the backend remains the authority.
type Session struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the session has an expiry before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type platformClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Inspect decodes a JWT without verifying its signature. Opaque tokens that
// are not JWTs return ok=false and no error.
func Inspect(token string) (Session, bool) {
	var claims platformClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, false
	}
	s := Session{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, true
}

// WithExpiryCheck wraps src so that JWTs whose exp has passed are rejected
// before any request leaves the process.
func WithExpiryCheck(src TokenSource, now func() time.Time) TokenSource {
	if now == nil {
		now = time.Now
	}
	return TokenFunc(func(ctx context.Context) (string, error) {
		tok, err := src.Token(ctx)
		if err != nil {
			return "", err
		}
		if s, ok := Inspect(tok); ok && s.Expired(now()) {
			return "", ErrTokenExpired
		}
		return tok, nil
	})
}

type contextKey struct{}

// WithSession attaches the acting session to ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
