// Package handlers is the HTTP boundary of the onboarding pipeline. Each
// handler decodes the request, resolves the caller from the session in
// context, delegates to a service and maps the service's error into the
// status taxonomy: 400 validation, 401 unauthenticated, 403 denied, 404
// absent, 409 retryable conflict, 500 storage.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
)

// Error codes returned in response bodies.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInternalError    = "INTERNAL_ERROR"
)

// ErrorBody is the JSON shape of every error response. Fields is present
// only for validation failures and names each offending input.
type ErrorBody struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(ErrorBody{Code: errorCode, Message: message})
}

// WriteServiceError maps a service-layer error onto the HTTP taxonomy.
// Validation and conflict messages are safe to show the caller verbatim;
// storage failures degrade to a generic message with detail kept in the
// server log.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, logger, verr)
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, CodeNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrForbidden):
		writeError(w, logger, http.StatusForbidden, CodeForbidden, "You do not have access to this resource")
	case errors.Is(err, apperrors.ErrUnauthorized):
		writeError(w, logger, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
	case errors.Is(err, apperrors.ErrConflict):
		writeError(w, logger, http.StatusConflict, CodeConflict, "The record changed underneath you; reload and retry")
	default:
		logger.Error("Request failed", zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, CodeInternalError, "Something went wrong, please try again")
	}
}

func writeValidationError(w http.ResponseWriter, logger *zap.Logger, verr *apperrors.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(ErrorBody{
		Code:    CodeValidationFailed,
		Message: "One or more fields failed validation",
		Fields:  verr.Fields,
	}); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// decodeJSON decodes a request body into dst, rejecting unparseable
// payloads as a validation failure rather than a 500.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("body", "must be valid JSON")
	}
	return nil
}
