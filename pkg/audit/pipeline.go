// Package audit provides structured audit logging for the onboarding
// pipeline. Gate movements, authorization denials and suspicious intake
// payloads are logged as JSON events with a dedicated logger namespace
// so they can be filtered out of the application log stream and fed to
// whatever is watching.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/intake"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// PipelineEventType categorizes pipeline events for filtering and alerting.
type PipelineEventType string

const (
	// EventGateAdvance is logged when a partner moves forward one gate on a
	// passing submission.
	EventGateAdvance PipelineEventType = "gate_advance"
	// EventGateOverride is logged when an administrator forces a gate change
	// outside normal progression. Kept distinct from gate_advance so override
	// activity can be reviewed on its own.
	EventGateOverride PipelineEventType = "gate_override"
	// EventAccessDenied is logged when an authenticated user is refused an
	// action by policy.
	EventAccessDenied PipelineEventType = "access_denied"
	// EventSuspiciousPayload is logged when intake screening flags submitted
	// answers. The submission is stored regardless; this is a signal, not a gate.
	EventSuspiciousPayload PipelineEventType = "suspicious_payload"
)

// PipelineEvent is one auditable event with the context needed to
// reconstruct who did what to which partner.
type PipelineEvent struct {
	Timestamp    time.Time         `json:"timestamp"`
	EventType    PipelineEventType `json:"event_type"`
	PartnerID    uuid.UUID         `json:"partner_id,omitempty"`
	SubmissionID uuid.UUID         `json:"submission_id,omitempty"`
	UserID       string            `json:"user_id,omitempty"`
	UserRole     string            `json:"user_role,omitempty"`
	Details      any               `json:"details"`
	Severity     string            `json:"severity"` // info, warning
}

// GateChangeDetails records a gate transition.
type GateChangeDetails struct {
	From    models.GateID `json:"from"`
	To      models.GateID `json:"to"`
	Trigger string        `json:"trigger"` // automatic, override
}

// AccessDeniedDetails records a refused action.
type AccessDeniedDetails struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

// PayloadFinding is the audit-facing shape of one intake screening hit.
type PayloadFinding struct {
	Type        string `json:"type"`
	FieldID     string `json:"field_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// PipelineAuditor logs pipeline events. All methods are fire-and-forget;
// an audit entry never fails the operation it describes.
type PipelineAuditor struct {
	logger *zap.Logger
}

// NewPipelineAuditor creates an auditor with a dedicated logger namespace.
func NewPipelineAuditor(logger *zap.Logger) *PipelineAuditor {
	return &PipelineAuditor{logger: logger.Named("pipeline_audit")}
}

// LogGateAdvance records an automatic one-step gate progression.
func (a *PipelineAuditor) LogGateAdvance(partnerID uuid.UUID, from, to models.GateID, user models.AuthUser) {
	event := PipelineEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventGateAdvance,
		PartnerID: partnerID,
		UserID:    user.ID,
		UserRole:  string(user.Role),
		Details:   GateChangeDetails{From: from, To: to, Trigger: "automatic"},
		Severity:  "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Partner advanced to next gate",
		zap.String("event_json", string(eventJSON)),
		zap.String("partner_id", partnerID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("user_id", user.ID),
	)
}

// LogGateOverride records an administrator forcing a gate change.
func (a *PipelineAuditor) LogGateOverride(partnerID uuid.UUID, from, to models.GateID, user models.AuthUser) {
	event := PipelineEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventGateOverride,
		PartnerID: partnerID,
		UserID:    user.ID,
		UserRole:  string(user.Role),
		Details:   GateChangeDetails{From: from, To: to, Trigger: "override"},
		Severity:  "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Gate changed by administrator override",
		zap.String("event_json", string(eventJSON)),
		zap.String("partner_id", partnerID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("user_id", user.ID),
	)
}

// LogAccessDenied records a policy refusal for an authenticated user.
func (a *PipelineAuditor) LogAccessDenied(user models.AuthUser, action, resource string) {
	event := PipelineEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventAccessDenied,
		UserID:    user.ID,
		UserRole:  string(user.Role),
		Details:   AccessDeniedDetails{Action: action, Resource: resource},
		Severity:  "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Access denied by policy",
		zap.String("event_json", string(eventJSON)),
		zap.String("user_id", user.ID),
		zap.String("user_role", string(user.Role)),
		zap.String("action", action),
		zap.String("resource", resource),
	)
}

// LogSuspiciousPayload records intake screening findings on a submission.
func (a *PipelineAuditor) LogSuspiciousPayload(partnerID, submissionID uuid.UUID, user models.AuthUser, findings []*intake.Finding) {
	if len(findings) == 0 {
		return
	}

	details := make([]PayloadFinding, 0, len(findings))
	for _, f := range findings {
		details = append(details, PayloadFinding{
			Type:        string(f.Type),
			FieldID:     f.FieldID,
			Fingerprint: f.Fingerprint,
		})
	}

	event := PipelineEvent{
		Timestamp:    time.Now().UTC(),
		EventType:    EventSuspiciousPayload,
		PartnerID:    partnerID,
		SubmissionID: submissionID,
		UserID:       user.ID,
		UserRole:     string(user.Role),
		Details:      details,
		Severity:     "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Suspicious payload in submitted answers",
		zap.String("event_json", string(eventJSON)),
		zap.String("partner_id", partnerID.String()),
		zap.String("submission_id", submissionID.String()),
		zap.String("user_id", user.ID),
		zap.Int("finding_count", len(findings)),
	)
}
