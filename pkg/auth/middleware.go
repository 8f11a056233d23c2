package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/rbac"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates identity resolution to Service.
type Middleware struct {
	service Service
	logger  *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given Service.
func NewMiddleware(service Service, logger *zap.Logger) *Middleware {
	return &Middleware{
		service: service,
		logger:  logger,
	}
}

// RequireSession resolves the caller and stores the Session in context
// for downstream handlers. A corrupted or expired session cookie is
// cleared on the client before the 401 so the browser re-authenticates
// cleanly instead of replaying the bad cookie forever.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := m.service.ValidateRequest(r)
		if err != nil {
			if errors.Is(err, apperrors.ErrSessionIntegrity) {
				if clearErr := m.service.ClearSession(w, r); clearErr != nil {
					m.logger.Warn("Failed to clear corrupted session cookie",
						zap.String("path", r.URL.Path),
						zap.Error(clearErr))
				}
				m.unauthorized(w, "Session expired")
				return
			}
			m.unauthorized(w, "Authentication required")
			return
		}

		next(w, r.WithContext(WithSession(r.Context(), session)))
	}
}

// RequireRole guards routes reserved for one role. Wrap handlers that are
// already behind RequireSession. The admin role passes every role check.
func (m *Middleware) RequireRole(role models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSession(r.Context())
			if !ok {
				m.unauthorized(w, "Authentication required")
				return
			}

			if session.User.Role != role && !session.User.Role.IsAdmin() {
				m.logger.Warn("Role check failed",
					zap.String("path", r.URL.Path),
					zap.String("user_id", session.User.ID),
					zap.String("role", string(session.User.Role)),
					zap.String("required_role", string(role)))
				m.forbidden(w, "Insufficient role")
				return
			}

			next(w, r)
		}
	}
}

// RequireRouteAccess enforces the static route table for authenticated
// users. Wrap handlers that are already behind RequireSession.
func (m *Middleware) RequireRouteAccess(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r.Context())
		if !ok {
			m.unauthorized(w, "Authentication required")
			return
		}

		if !rbac.CanAccessRoute(session.User, r.URL.Path) {
			m.forbidden(w, "Route restricted")
			return
		}

		next(w, r)
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}

// forbidden returns a 403 response with JSON error body.
func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "FORBIDDEN",
		"message": message,
	})
}
