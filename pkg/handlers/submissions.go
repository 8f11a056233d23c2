package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/auth"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/services"
)

// SubmissionsHandler handles questionnaire submission endpoints.
type SubmissionsHandler struct {
	submissions services.SubmissionService
	logger      *zap.Logger
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(submissions services.SubmissionService, logger *zap.Logger) *SubmissionsHandler {
	return &SubmissionsHandler{submissions: submissions, logger: logger}
}

// RegisterRoutes registers the submissions handler's routes on the given mux.
func (h *SubmissionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/submissions", authMiddleware.RequireSession(h.Create))
	mux.HandleFunc("GET /api/submission/{id}", authMiddleware.RequireSession(h.Get))
	mux.HandleFunc("PUT /api/submission/{id}", authMiddleware.RequireSession(h.Update))
	mux.HandleFunc("POST /api/submission/{id}/reevaluate",
		authMiddleware.RequireSession(authMiddleware.RequireRole(models.RolePDM)(h.Reevaluate)))
	mux.HandleFunc("POST /api/submission/{id}/migrate",
		authMiddleware.RequireSession(authMiddleware.RequireRole(models.RolePDM)(h.Migrate)))
	mux.HandleFunc("GET /api/partner/{id}/submissions", authMiddleware.RequireSession(h.ListByPartner))
}

// CreateSubmissionResponse wraps a persisted submission with whether it
// advanced the partner's gate.
type CreateSubmissionResponse struct {
	Submission   *models.QuestionnaireSubmission `json:"submission"`
	GateAdvanced bool                            `json:"gateAdvanced"`
}

// Create handles POST /api/submissions
// The server stamps the template version pin and the signer's network
// context; clients cannot choose which template version governs them.
func (h *SubmissionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	var submission models.QuestionnaireSubmission
	if err := decodeJSON(r, &submission); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if submission.Signature != nil {
		submission.Signature.IPAddress = r.RemoteAddr
		submission.Signature.UserAgent = r.UserAgent()
	}

	created, advanced, err := h.submissions.Create(r.Context(), user, &submission)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, CreateSubmissionResponse{
		Submission:   created,
		GateAdvanced: advanced,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/submission/{id}
func (h *SubmissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	id, err := parseSubmissionID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	submission, err := h.submissions.Get(r.Context(), user, id)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, submission); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/submission/{id}
// Edits in place: answers and signature may change, the template version
// pin and creation time may not.
func (h *SubmissionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	id, err := parseSubmissionID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	var submission models.QuestionnaireSubmission
	if err := decodeJSON(r, &submission); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	submission.ID = id

	if submission.Signature != nil {
		submission.Signature.IPAddress = r.RemoteAddr
		submission.Signature.UserAgent = r.UserAgent()
	}

	updated, err := h.submissions.Update(r.Context(), user, &submission)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, updated); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reevaluate handles POST /api/submission/{id}/reevaluate
// Re-runs evaluation against the pinned template version. Admin only.
func (h *SubmissionsHandler) Reevaluate(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.submissions.Reevaluate)
}

// Migrate handles POST /api/submission/{id}/migrate
// Deliberately repins the submission to the current template version and
// re-evaluates. Admin only.
func (h *SubmissionsHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.submissions.Migrate)
}

// ListByPartner handles GET /api/partner/{id}/submissions
func (h *SubmissionsHandler) ListByPartner(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	partnerID, err := parsePartnerID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	submissions, err := h.submissions.ListByPartner(r.Context(), user, partnerID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"submissions": submissions}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// adminAction runs one of the admin-only submission operations that take
// just the submission id and return the updated record.
func (h *SubmissionsHandler) adminAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error),
) {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return
	}

	id, err := parseSubmissionID(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	submission, err := action(r.Context(), user, id)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, submission); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// parseSubmissionID reads the {id} path value as a submission UUID.
func parseSubmissionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("id", "must be a valid submission id")
	}
	return id, nil
}
