package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/auth"
)

// AuthHandler exposes the session surface: who am I, and log out.
// Session establishment itself happens upstream at the identity
// provider; this service only validates and clears what the client
// presents.
type AuthHandler struct {
	service auth.Service
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/auth/me", authMiddleware.RequireSession(h.Me))
	mux.HandleFunc("DELETE /api/auth/session", authMiddleware.RequireSession(h.Logout))
}

// Me handles GET /api/auth/me
// Returns the resolved identity for the presented credentials.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r.Context())
	if !ok {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"user":      session.User,
		"issuedAt":  session.IssuedAt,
		"expiresAt": session.ExpiresAt,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles DELETE /api/auth/session
// Expires the session cookie on the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearSession(w, r); err != nil {
		h.logger.Error("Failed to clear session on logout", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, CodeInternalError, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
