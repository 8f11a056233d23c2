package models

import (
	"time"

	"github.com/google/uuid"
)

// SectionResult is the verdict for one evaluated section.
type SectionResult string

const (
	SectionResultPass    SectionResult = "pass"
	SectionResultFail    SectionResult = "fail"
	SectionResultPending SectionResult = "pending"
)

// SectionStatus is the evaluator's output for one section. FailureReasons
// carries every unmet condition, not just the first.
type SectionStatus struct {
	Result         SectionResult `json:"result"`
	EvaluatedAt    time.Time     `json:"evaluatedAt"`
	FailureReasons []string      `json:"failureReasons,omitempty"`
}

// OverallStatus is the submission-level verdict derived from section results:
// pass iff every section passed, fail iff any section failed, pending iff all
// sections are pending, partial otherwise.
type OverallStatus string

const (
	OverallStatusPass    OverallStatus = "pass"
	OverallStatusFail    OverallStatus = "fail"
	OverallStatusPartial OverallStatus = "partial"
	OverallStatusPending OverallStatus = "pending"
)

// SectionData holds one section's raw submitted answers keyed by field id,
// plus the computed status.
type SectionData struct {
	SectionID string         `json:"sectionId"`
	Title     string         `json:"title,omitempty"`
	Fields    map[string]any `json:"fields"`
	Status    *SectionStatus `json:"status,omitempty"`
}

// SignatureType distinguishes a typed name from a drawn signature image.
type SignatureType string

const (
	SignatureTypeTyped SignatureType = "typed"
	SignatureTypeDrawn SignatureType = "drawn"
)

// IsValidSignatureType checks if the given signature type is valid.
func IsValidSignatureType(t SignatureType) bool {
	return t == SignatureTypeTyped || t == SignatureTypeDrawn
}

// Signature captures who attested to a submission and from where.
type Signature struct {
	Type        SignatureType `json:"type"`
	Data        string        `json:"data"`
	SignerName  string        `json:"signerName"`
	SignerEmail string        `json:"signerEmail"`
	SignedAt    time.Time     `json:"signedAt"`
	IPAddress   string        `json:"ipAddress,omitempty"`
	UserAgent   string        `json:"userAgent,omitempty"`
}

// QuestionnaireSubmission is one questionnaire answer set for one partner and
// gate. TemplateVersion pins the template snapshot that governs how the
// submission is rendered and evaluated; once created it never changes, even
// when the template is edited later, unless the submission is deliberately
// migrated. Edits reuse the same id and update in place.
type QuestionnaireSubmission struct {
	ID              uuid.UUID                `json:"id"`
	QuestionnaireID string                   `json:"questionnaireId"`
	PartnerID       uuid.UUID                `json:"partnerId"`
	TemplateVersion int                      `json:"templateVersion"`
	Sections        []SectionData            `json:"sections"`
	SectionStatuses map[string]SectionStatus `json:"sectionStatuses,omitempty"`
	OverallStatus   OverallStatus            `json:"overallStatus"`
	Signature       *Signature               `json:"signature,omitempty"`
	SubmittedBy     string                   `json:"submittedBy"`
	SubmittedByRole Role                     `json:"submittedByRole"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
	SubmittedAt     time.Time                `json:"submittedAt"`
}
