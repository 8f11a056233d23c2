package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/launchgate-inc/launchgate-engine/pkg/audit"
	"github.com/launchgate-inc/launchgate-engine/pkg/cache"
	"github.com/launchgate-inc/launchgate-engine/pkg/kvstore"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/repositories"
)

// testEnv wires the full service stack over an in-memory store. The
// auditor writes to an observed logger so tests can assert which audit
// events fired.
type testEnv struct {
	partners    PartnerService
	templates   TemplateService
	gates       GateService
	submissions SubmissionService

	partnerRepo    repositories.PartnerRepository
	templateRepo   repositories.TemplateRepository
	submissionRepo repositories.SubmissionRepository

	auditLogs *observer.ObservedLogs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := kvstore.NewMemoryStore()
	logger := zap.NewNop()

	core, auditLogs := observer.New(zap.DebugLevel)
	auditor := audit.NewPipelineAuditor(zap.New(core))

	partnerRepo := repositories.NewPartnerRepository(store)
	templateRepo := repositories.NewTemplateRepository(store)
	submissionRepo := repositories.NewSubmissionRepository(store)

	templates := NewTemplateService(templateRepo, cache.NewTemplateCache(time.Minute), auditor, logger)
	gates := NewGateService(partnerRepo, submissionRepo, auditor, logger)

	return &testEnv{
		partners:       NewPartnerService(partnerRepo, auditor, logger),
		templates:      templates,
		gates:          gates,
		submissions:    NewSubmissionService(submissionRepo, partnerRepo, templates, gates, auditor, logger),
		partnerRepo:    partnerRepo,
		templateRepo:   templateRepo,
		submissionRepo: submissionRepo,
		auditLogs:      auditLogs,
	}
}

// auditEvents returns the audit event types recorded so far, in order.
func (env *testEnv) auditEvents() []string {
	var events []string
	for _, entry := range env.auditLogs.All() {
		eventJSON, ok := entry.ContextMap()["event_json"].(string)
		if !ok {
			continue
		}
		for _, et := range []audit.PipelineEventType{
			audit.EventGateAdvance, audit.EventGateOverride,
			audit.EventAccessDenied, audit.EventSuspiciousPayload,
		} {
			if strings.Contains(eventJSON, `"event_type":"`+string(et)+`"`) {
				events = append(events, string(et))
				break
			}
		}
	}
	return events
}

func adminUser() models.AuthUser {
	return models.AuthUser{ID: "u-pdm", Email: "dev.manager@launchgate.io", Name: "Dana Okafor", Role: models.RolePDM}
}

func pamUser(email string) models.AuthUser {
	return models.AuthUser{ID: "u-" + email, Email: email, Name: "PAM", Role: models.RolePAM}
}

// makeTemplate builds a one-section template whose "signed" field must
// equal "yes" under automatic criteria.
func makeTemplate(id string) *models.QuestionnaireTemplate {
	return &models.QuestionnaireTemplate{
		ID:   id,
		Name: id + " questionnaire",
		Sections: []models.TemplateSection{
			{
				ID:    "commercial",
				Title: "Commercial Readiness",
				Fields: []models.QuestionField{
					{ID: "signed", Label: "Contract signed?", Type: models.FieldTypeRadio, Required: true, Options: []string{"yes", "no"}},
				},
				PassFailCriteria: &models.Criteria{
					Type: models.CriteriaTypeAutomatic,
					Rules: []models.Rule{
						{FieldID: "signed", Operator: models.OperatorEquals, Value: "yes", FailureMessage: "contract must be signed"},
					},
				},
			},
		},
	}
}

// seedTemplate installs a template as version 1 through the admin save path.
func seedTemplate(t *testing.T, env *testEnv, template *models.QuestionnaireTemplate) *models.QuestionnaireTemplate {
	t.Helper()
	saved, err := env.templates.Save(context.Background(), adminUser(), template, 0)
	if err != nil {
		t.Fatalf("failed to seed template %s: %v", template.ID, err)
	}
	return saved
}

// createPartner persists a partner owned by the given PAM email.
func createPartner(t *testing.T, env *testEnv, name, pamOwner string) *models.PartnerRecord {
	t.Helper()
	partner, err := env.partners.Create(context.Background(), pamUser(pamOwner), &models.PartnerRecord{
		PartnerName:  name,
		PAMOwner:     pamOwner,
		ContractType: models.ContractTypePPA,
		Tier:         models.TierOne,
		CCV:          25_000_000,
		LRP:          100_000_000,
	})
	if err != nil {
		t.Fatalf("failed to create partner %s: %v", name, err)
	}
	return partner
}

// makeSubmission builds a valid create request answering the makeTemplate
// questionnaire.
func makeSubmission(partner *models.PartnerRecord, questionnaireID, signed string, submitter models.AuthUser) *models.QuestionnaireSubmission {
	return &models.QuestionnaireSubmission{
		QuestionnaireID: questionnaireID,
		PartnerID:       partner.ID,
		Sections: []models.SectionData{
			{SectionID: "commercial", Fields: map[string]any{"signed": signed}},
		},
		Signature: &models.Signature{
			Type:        models.SignatureTypeTyped,
			Data:        submitter.Name,
			SignerName:  submitter.Name,
			SignerEmail: submitter.Email,
		},
		SubmittedBy:     submitter.Email,
		SubmittedByRole: submitter.Role,
	}
}
