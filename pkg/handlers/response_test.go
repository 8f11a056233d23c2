package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperrors.NewValidationError("partnerName", "is required"), http.StatusBadRequest, CodeValidationFailed},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"wrapped not found", fmt.Errorf("partner %s: %w", "abc", apperrors.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, CodeConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteServiceError(rec, zap.NewNop(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, body.Code)
			}
		})
	}
}

func TestWriteServiceError_ValidationFields(t *testing.T) {
	verr := apperrors.NewValidationError("partnerName", "is required").
		Add("contractType", "must be one of PPA, Distribution, Sales-Agent, Other")

	rec := httptest.NewRecorder()
	WriteServiceError(rec, zap.NewNop(), verr)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(body.Fields))
	}
	if body.Fields[0].Field != "partnerName" {
		t.Errorf("expected first field 'partnerName', got %q", body.Fields[0].Field)
	}
	if body.Fields[1].Field != "contractType" {
		t.Errorf("expected second field 'contractType', got %q", body.Fields[1].Field)
	}
}

func TestWriteServiceError_InternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, zap.NewNop(), errors.New("pq: relation launchgate_records does not exist"))

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Message == "pq: relation launchgate_records does not exist" {
		t.Error("internal error detail leaked into the response body")
	}
}

func TestWriteJSON_SetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/partners", errReader{})

	var dst map[string]any
	err := decodeJSON(req, &dst)
	if err == nil {
		t.Fatal("expected error for unreadable body")
	}
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read error") }
