package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrMissingClaims        = errors.New("token missing required identity claims")
)

// Service defines the interface for session operations. This abstraction
// separates HTTP handling from identity logic, making both easier to test.
type Service interface {
	// ValidateRequest resolves the caller's identity from the request.
	// It checks for credentials in:
	//   1. Session cookie "lg_session" (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// A structurally invalid or expired cookie returns an error wrapping
	// apperrors.ErrSessionIntegrity so the middleware can clear it.
	ValidateRequest(r *http.Request) (*Session, error)

	// IssueSession writes a signed session cookie for the given user and
	// returns the session it encodes.
	IssueSession(w http.ResponseWriter, r *http.Request, user models.AuthUser) (*Session, error)

	// ClearSession expires the session cookie on the client.
	ClearSession(w http.ResponseWriter, r *http.Request) error
}

// Options configures session validation.
type Options struct {
	// Secret signs cookies and bearer tokens; see SigningKey.
	Secret string
	// SessionTTL bounds how long an issued session stays valid.
	SessionTTL time.Duration
	// Cookie carries the Secure/Domain settings for the session cookie.
	Cookie CookieSettings
	// EnableVerification, when false, short-circuits validation and runs
	// every request as DevUser. Local development only.
	EnableVerification bool
	// DevUser is the identity injected when verification is disabled.
	DevUser models.AuthUser
}

type service struct {
	store              *sessions.CookieStore
	signingKey         []byte
	sessionTTL         time.Duration
	enableVerification bool
	devUser            models.AuthUser
	logger             *zap.Logger
}

// NewService creates a new session Service.
func NewService(opts Options, logger *zap.Logger) Service {
	return &service{
		store:              newCookieStore(opts.Secret, opts.SessionTTL, opts.Cookie),
		signingKey:         SigningKey(opts.Secret),
		sessionTTL:         opts.SessionTTL,
		enableVerification: opts.EnableVerification,
		devUser:            opts.DevUser,
		logger:             logger.Named("auth"),
	}
}

var _ Service = (*service)(nil)

// ValidateRequest resolves the caller's identity from cookie or bearer token.
func (s *service) ValidateRequest(r *http.Request) (*Session, error) {
	if !s.enableVerification {
		now := time.Now().UTC()
		return &Session{User: s.devUser, IssuedAt: now, ExpiresAt: now.Add(s.sessionTTL)}, nil
	}

	// Try cookie first (browser clients)
	if _, err := r.Cookie(SessionCookieName); err == nil {
		session, err := s.validateCookie(r)
		if err != nil {
			s.logger.Debug("Session cookie rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			return nil, err
		}
		return session, nil
	}

	// Fallback to Authorization header (API clients)
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No credentials found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return nil, ErrInvalidAuthFormat
	}

	session, err := s.validateToken(parts[1])
	if err != nil {
		s.logger.Debug("Bearer token rejected",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil, err
	}
	return session, nil
}

// validateCookie decodes the session cookie that is known to be present.
// Every failure mode here means the client holds a cookie we can no
// longer trust, so everything maps to ErrSessionIntegrity.
func (s *service) validateCookie(r *http.Request) (*Session, error) {
	cookieSession, err := s.store.Get(r, SessionCookieName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSessionIntegrity, err)
	}

	session, err := decodeSessionValues(cookieSession.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSessionIntegrity, err)
	}

	if session.Expired(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: session expired", apperrors.ErrSessionIntegrity)
	}

	return session, nil
}

// validateToken parses and verifies an HS256 bearer token.
func (s *service) validateToken(tokenString string) (*Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("invalid bearer token: %w", err)
	}

	return claims.session()
}

// decodeSessionValues rebuilds a Session from cookie values. Any missing
// or mistyped value means the payload was not produced by IssueSession.
func decodeSessionValues(values map[any]any) (*Session, error) {
	userID, ok := values[sessionKeyUserID].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("missing user id")
	}
	email, ok := values[sessionKeyEmail].(string)
	if !ok || email == "" {
		return nil, fmt.Errorf("missing email")
	}
	name, _ := values[sessionKeyName].(string)
	roleStr, ok := values[sessionKeyRole].(string)
	if !ok {
		return nil, fmt.Errorf("missing role")
	}
	role := models.Role(roleStr)
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", roleStr)
	}
	issuedAt, ok := values[sessionKeyIssuedAt].(int64)
	if !ok {
		return nil, fmt.Errorf("missing issued_at")
	}
	expiresAt, ok := values[sessionKeyExpiresAt].(int64)
	if !ok {
		return nil, fmt.Errorf("missing expires_at")
	}

	return &Session{
		User:      models.AuthUser{ID: userID, Email: email, Name: name, Role: role},
		IssuedAt:  time.Unix(issuedAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

// IssueSession writes a signed session cookie for the given user.
func (s *service) IssueSession(w http.ResponseWriter, r *http.Request, user models.AuthUser) (*Session, error) {
	if !models.IsValidRole(user.Role) {
		return nil, apperrors.ErrInvalidRole
	}

	now := time.Now().UTC()
	session := &Session{User: user, IssuedAt: now, ExpiresAt: now.Add(s.sessionTTL)}

	// Get returns a fresh session when no valid cookie exists; a decode
	// error is irrelevant since every value is overwritten below.
	cookieSession, _ := s.store.Get(r, SessionCookieName)
	cookieSession.Values[sessionKeyUserID] = user.ID
	cookieSession.Values[sessionKeyEmail] = user.Email
	cookieSession.Values[sessionKeyName] = user.Name
	cookieSession.Values[sessionKeyRole] = string(user.Role)
	cookieSession.Values[sessionKeyIssuedAt] = session.IssuedAt.Unix()
	cookieSession.Values[sessionKeyExpiresAt] = session.ExpiresAt.Unix()

	if err := cookieSession.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to save session cookie: %w", err)
	}
	return session, nil
}

// ClearSession expires the session cookie on the client. Used on logout
// and whenever a corrupted cookie is detected.
func (s *service) ClearSession(w http.ResponseWriter, r *http.Request) error {
	cookieSession, _ := s.store.Get(r, SessionCookieName)
	cookieSession.Values = make(map[any]any)
	cookieSession.Options.MaxAge = -1

	if err := cookieSession.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session cookie: %w", err)
	}
	return nil
}
