package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/auth"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/services"
)

// TemplatesHandler exposes the questionnaire template catalog and its
// version history. Reads are open to any authenticated user; saves are
// admin-only and optimistically locked on the version the editor loaded.
type TemplatesHandler struct {
	templates services.TemplateService
	logger    *zap.Logger
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(templates services.TemplateService, logger *zap.Logger) *TemplatesHandler {
	return &TemplatesHandler{templates: templates, logger: logger}
}

// RegisterRoutes registers the templates handler's routes on the given mux.
func (h *TemplatesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/templates", authMiddleware.RequireSession(h.List))
	mux.HandleFunc("GET /api/template/{id}", authMiddleware.RequireSession(h.Get))
	mux.HandleFunc("PUT /api/template/{id}",
		authMiddleware.RequireSession(authMiddleware.RequireRole(models.RolePDM)(h.Save)))
	mux.HandleFunc("GET /api/template/{id}/versions", authMiddleware.RequireSession(h.ListVersions))
	mux.HandleFunc("GET /api/template/{id}/versions/{version}", authMiddleware.RequireSession(h.GetVersion))
}

// List handles GET /api/templates
func (h *TemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"templates": templates}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/template/{id}
func (h *TemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	template, err := h.templates.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, template); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SaveTemplateRequest is the request body for PUT /api/template/{id}.
// BaseVersion is the version the editor loaded; the save is rejected
// with 409 when it no longer matches the stored version.
type SaveTemplateRequest struct {
	Name        string                   `json:"name"`
	Sections    []models.TemplateSection `json:"sections"`
	BaseVersion int                      `json:"baseVersion"`
}

// Save handles PUT /api/template/{id}
// Admin-only; produces a new immutable version on success.
func (h *TemplatesHandler) Save(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	var req SaveTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	template := &models.QuestionnaireTemplate{
		ID:       r.PathValue("id"),
		Name:     req.Name,
		Sections: req.Sections,
	}

	saved, err := h.templates.Save(r.Context(), user, template, req.BaseVersion)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, saved); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListVersions handles GET /api/template/{id}/versions
// Returns the append-only version history, oldest first.
func (h *TemplatesHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.templates.ListVersions(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"versions": versions}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetVersion handles GET /api/template/{id}/versions/{version}
// Returns one immutable snapshot exactly as it was frozen.
func (h *TemplatesHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		WriteServiceError(w, h.logger, apperrors.NewValidationError("version", "must be a positive integer"))
		return
	}

	snapshot, err := h.templates.GetVersion(r.Context(), r.PathValue("id"), version)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, snapshot); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
