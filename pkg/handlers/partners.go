package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/auth"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/services"
)

// PartnersHandler handles partner CRUD and explicit gate-change requests.
type PartnersHandler struct {
	partners services.PartnerService
	gates    services.GateService
	logger   *zap.Logger
}

// NewPartnersHandler creates a new partners handler.
func NewPartnersHandler(partners services.PartnerService, gates services.GateService, logger *zap.Logger) *PartnersHandler {
	return &PartnersHandler{
		partners: partners,
		gates:    gates,
		logger:   logger,
	}
}

// RegisterRoutes registers the partners handler's routes on the given mux.
func (h *PartnersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/partners", authMiddleware.RequireSession(h.Create))
	mux.HandleFunc("GET /api/partners", authMiddleware.RequireSession(h.List))
	mux.HandleFunc("GET /api/partner/{id}", authMiddleware.RequireSession(h.Get))
	mux.HandleFunc("PUT /api/partner/{id}", authMiddleware.RequireSession(h.Update))
	mux.HandleFunc("DELETE /api/partner/{id}", authMiddleware.RequireSession(h.Delete))
	mux.HandleFunc("POST /api/partner/{id}/gate", authMiddleware.RequireSession(h.ChangeGate))
}

// Create handles POST /api/partners
func (h *PartnersHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	var partner models.PartnerRecord
	if err := decodeJSON(r, &partner); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	created, err := h.partners.Create(r.Context(), user, &partner)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, created); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/partners
// Returns the partners visible to the caller's role.
func (h *PartnersHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	partners, err := h.partners.List(r.Context(), user)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"partners": partners}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/partner/{id}
func (h *PartnersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	id, err := parsePartnerID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	partner, err := h.partners.Get(r.Context(), user, id)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, partner); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/partner/{id}
// Business fields are written through the partner service; a currentGate
// change in the payload is routed through the gate controller, which is
// the only component allowed to move gate state. The gate change runs
// first: it is the part of the request most likely to be rejected, and a
// rejection must not leave the business-field edits half applied.
func (h *PartnersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	id, err := parsePartnerID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	var partner models.PartnerRecord
	if err := decodeJSON(r, &partner); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	partner.ID = id
	requestedGate := partner.CurrentGate

	if requestedGate != "" {
		current, err := h.partners.Get(r.Context(), user, id)
		if err != nil {
			WriteServiceError(w, h.logger, err)
			return
		}
		if requestedGate != current.CurrentGate {
			if _, err := h.gates.RequestChange(r.Context(), user, id, requestedGate); err != nil {
				WriteServiceError(w, h.logger, err)
				return
			}
		}
	}

	// The partner service preserves stored gate state, so the record it
	// returns already reflects the change above.
	updated, err := h.partners.Update(r.Context(), user, &partner)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, updated); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/partner/{id}
// Restricted to the admin role by the partner service.
func (h *PartnersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	id, err := parsePartnerID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := h.partners.Delete(r.Context(), user, id); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GateChangeRequest is the request body for POST /api/partner/{id}/gate.
type GateChangeRequest struct {
	Gate models.GateID `json:"gate"`
}

// ChangeGate handles POST /api/partner/{id}/gate
// One step forward needs a passing questionnaire; anything else is an
// admin override.
func (h *PartnersHandler) ChangeGate(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	id, err := parsePartnerID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	var req GateChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	partner, err := h.gates.RequestChange(r.Context(), user, id, req.Gate)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, partner); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// parsePartnerID reads the {id} path value as a partner UUID.
func parsePartnerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("id", "must be a valid partner id")
	}
	return id, nil
}
