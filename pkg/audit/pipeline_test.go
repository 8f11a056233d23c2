package audit

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/launchgate-inc/launchgate-engine/pkg/intake"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

func newTestAuditor() (*PipelineAuditor, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewPipelineAuditor(zap.New(core)), logs
}

func testUser() models.AuthUser {
	return models.AuthUser{ID: "u-1", Email: "maya.chen@launchgate.io", Role: models.RolePAM}
}

func TestLogGateAdvance(t *testing.T) {
	auditor, logs := newTestAuditor()
	partnerID := uuid.New()

	auditor.LogGateAdvance(partnerID, models.GateZero, models.GateOne, testUser())

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zap.InfoLevel {
		t.Errorf("expected info level, got %v", entry.Level)
	}
	if entry.LoggerName != "pipeline_audit" {
		t.Errorf("expected pipeline_audit namespace, got %q", entry.LoggerName)
	}

	fields := entry.ContextMap()
	if fields["from"] != "gate-0" || fields["to"] != "gate-1" {
		t.Errorf("expected gate-0 -> gate-1, got %v -> %v", fields["from"], fields["to"])
	}
	if !strings.Contains(fields["event_json"].(string), `"trigger":"automatic"`) {
		t.Error("expected automatic trigger in the event payload")
	}
}

func TestLogGateOverride_DistinctFromAdvance(t *testing.T) {
	auditor, logs := newTestAuditor()

	auditor.LogGateOverride(uuid.New(), models.GateZero, models.GateThree, testUser())

	entry := logs.All()[0]
	if entry.Level != zap.WarnLevel {
		t.Errorf("expected warn level for overrides, got %v", entry.Level)
	}

	eventJSON := entry.ContextMap()["event_json"].(string)
	if !strings.Contains(eventJSON, string(EventGateOverride)) {
		t.Error("expected gate_override event type")
	}
	if !strings.Contains(eventJSON, `"trigger":"override"`) {
		t.Error("expected override trigger in the event payload")
	}
}

func TestLogAccessDenied(t *testing.T) {
	auditor, logs := newTestAuditor()

	auditor.LogAccessDenied(testUser(), "delete", "partner/3f1a")

	entry := logs.All()[0]
	if entry.Level != zap.WarnLevel {
		t.Errorf("expected warn level, got %v", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["action"] != "delete" || fields["resource"] != "partner/3f1a" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestLogSuspiciousPayload(t *testing.T) {
	auditor, logs := newTestAuditor()

	t.Run("no findings means no entry", func(t *testing.T) {
		auditor.LogSuspiciousPayload(uuid.New(), uuid.New(), testUser(), nil)
		if logs.Len() != 0 {
			t.Errorf("expected no log entries, got %d", logs.Len())
		}
	})

	t.Run("findings are summarized", func(t *testing.T) {
		findings := []*intake.Finding{
			{Type: intake.FindingSQLi, FieldID: "search", Value: "'; DROP TABLE partners--", Fingerprint: "s&1c"},
		}
		auditor.LogSuspiciousPayload(uuid.New(), uuid.New(), testUser(), findings)

		if logs.Len() != 1 {
			t.Fatalf("expected 1 log entry, got %d", logs.Len())
		}
		entry := logs.All()[0]
		fields := entry.ContextMap()
		if fields["finding_count"] != int64(1) {
			t.Errorf("finding_count = %v, want 1", fields["finding_count"])
		}

		eventJSON := fields["event_json"].(string)
		if !strings.Contains(eventJSON, `"field_id":"search"`) {
			t.Error("expected the field id in the event payload")
		}
		if strings.Contains(eventJSON, "DROP TABLE") {
			t.Error("raw payload values must not be logged")
		}
	})
}
