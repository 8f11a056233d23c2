// Package auth resolves caller identity for every request. Browser
// clients carry a signed session cookie, API clients a bearer token;
// both resolve to the same Session value placed in the request context.
// Nothing here talks to the identity provider: sessions are established
// upstream and this package only validates what the client presents.
package auth

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// SessionCookieName is the name of the signed session cookie.
const SessionCookieName = "lg_session"

// Session cookie value keys.
const (
	sessionKeyUserID    = "user_id"
	sessionKeyEmail     = "email"
	sessionKeyName      = "name"
	sessionKeyRole      = "role"
	sessionKeyIssuedAt  = "issued_at"
	sessionKeyExpiresAt = "expires_at"
)

// Session is the resolved caller identity for one request. It travels in
// the request context, never in package globals.
type Session struct {
	User      models.AuthUser
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session's server-side TTL has lapsed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// sessionContextKey is the context key for storing the resolved session.
const sessionContextKey contextKey = "session"

// WithSession returns a context carrying the resolved session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// GetSession retrieves the session from the request context.
// Returns nil and false if no session is present.
func GetSession(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	return session, ok
}

// RequireSessionFromContext extracts the session from context and returns
// an error if not found. Use this when identity is required for the
// operation.
func RequireSessionFromContext(ctx context.Context) (*Session, error) {
	session, ok := GetSession(ctx)
	if !ok || session == nil {
		return nil, fmt.Errorf("no session in context")
	}
	return session, nil
}

// UserFromContext returns the authenticated user from the request context.
// Handlers behind RequireSession can rely on it being present.
func UserFromContext(ctx context.Context) (models.AuthUser, error) {
	session, err := RequireSessionFromContext(ctx)
	if err != nil {
		return models.AuthUser{}, err
	}
	return session.User, nil
}

// SigningKey derives the 32-byte key used to sign both session cookies
// and bearer tokens. The secret can be any passphrase; it is SHA-256
// hashed so operators are not forced to generate exact-length keys. It
// must be consistent across server restarts and multiple replicas behind
// a load balancer.
func SigningKey(secret string) []byte {
	key := sha256.Sum256([]byte(secret))
	return key[:]
}

// newCookieStore builds the cookie codec for browser sessions.
//
// Security settings:
// - HttpOnly: true (inaccessible to JavaScript)
// - Secure: derived from the deployment's base URL
// - SameSite: Lax (the app posts from its own origin only)
func newCookieStore(secret string, ttl time.Duration, settings CookieSettings) *sessions.CookieStore {
	store := sessions.NewCookieStore(SigningKey(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   settings.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
