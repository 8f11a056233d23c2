package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/launchgate-inc/launchgate-engine/pkg/auth"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// withSession returns a copy of the request carrying a resolved session
// for the given user, the way the auth middleware would.
func withSession(r *http.Request, user models.AuthUser) *http.Request {
	session := &auth.Session{
		User:      user,
		IssuedAt:  time.Now().Add(-time.Minute),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return r.WithContext(auth.WithSession(r.Context(), session))
}

func testAdmin() models.AuthUser {
	return models.AuthUser{ID: "pdm@example.com", Email: "pdm@example.com", Name: "Pat PDM", Role: models.RolePDM}
}

func testPAM() models.AuthUser {
	return models.AuthUser{ID: "pam@example.com", Email: "pam@example.com", Name: "Paula PAM", Role: models.RolePAM}
}

// mockPartnerService is a configurable mock for all handler tests.
// updateResult, when set, is what Update returns; it stands in for the
// stored record the real service reloads, which may carry gate state
// moved by an earlier gate-change call.
type mockPartnerService struct {
	partner      *models.PartnerRecord
	partners     []*models.PartnerRecord
	updateResult *models.PartnerRecord
	err          error

	updated *models.PartnerRecord
	deleted uuid.UUID
}

func (m *mockPartnerService) Create(ctx context.Context, user models.AuthUser, partner *models.PartnerRecord) (*models.PartnerRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.partner != nil {
		return m.partner, nil
	}
	partner.ID = uuid.New()
	partner.CurrentGate = models.GatePreContract
	return partner, nil
}

func (m *mockPartnerService) Get(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.PartnerRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.partner != nil {
		return m.partner, nil
	}
	return &models.PartnerRecord{ID: id, PartnerName: "Acme Energy", PAMOwner: user.Email}, nil
}

func (m *mockPartnerService) List(ctx context.Context, user models.AuthUser) ([]*models.PartnerRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.partners, nil
}

func (m *mockPartnerService) Update(ctx context.Context, user models.AuthUser, partner *models.PartnerRecord) (*models.PartnerRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updated = partner
	if m.updateResult != nil {
		return m.updateResult, nil
	}
	if m.partner != nil {
		return m.partner, nil
	}
	return partner, nil
}

func (m *mockPartnerService) Delete(ctx context.Context, user models.AuthUser, id uuid.UUID) error {
	m.deleted = id
	return m.err
}

// mockGateService records gate-change requests for assertions.
type mockGateService struct {
	partner  *models.PartnerRecord
	advanced bool
	err      error

	requestedPartner uuid.UUID
	requestedTarget  models.GateID
}

func (m *mockGateService) RequestChange(ctx context.Context, user models.AuthUser, partnerID uuid.UUID, target models.GateID) (*models.PartnerRecord, error) {
	m.requestedPartner = partnerID
	m.requestedTarget = target
	if m.err != nil {
		return nil, m.err
	}
	if m.partner != nil {
		return m.partner, nil
	}
	return &models.PartnerRecord{ID: partnerID, CurrentGate: target}, nil
}

func (m *mockGateService) AdvanceFromSubmission(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.PartnerRecord, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.partner, m.advanced, nil
}

// mockSubmissionService is a configurable mock for submission handler tests.
type mockSubmissionService struct {
	submission  *models.QuestionnaireSubmission
	submissions []*models.QuestionnaireSubmission
	advanced    bool
	err         error

	created *models.QuestionnaireSubmission
	updated *models.QuestionnaireSubmission
}

func (m *mockSubmissionService) Create(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, bool, error) {
	m.created = submission
	if m.err != nil {
		return nil, false, m.err
	}
	if m.submission != nil {
		return m.submission, m.advanced, nil
	}
	submission.ID = uuid.New()
	return submission, m.advanced, nil
}

func (m *mockSubmissionService) Get(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.submission != nil {
		return m.submission, nil
	}
	return &models.QuestionnaireSubmission{ID: id, QuestionnaireID: "gate-0"}, nil
}

func (m *mockSubmissionService) Update(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, error) {
	m.updated = submission
	if m.err != nil {
		return nil, m.err
	}
	return submission, nil
}

func (m *mockSubmissionService) ListByPartner(ctx context.Context, user models.AuthUser, partnerID uuid.UUID) ([]*models.QuestionnaireSubmission, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.submissions, nil
}

func (m *mockSubmissionService) Reevaluate(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.submission != nil {
		return m.submission, nil
	}
	return &models.QuestionnaireSubmission{ID: id, OverallStatus: models.OverallStatusPass}, nil
}

func (m *mockSubmissionService) Migrate(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.submission != nil {
		return m.submission, nil
	}
	return &models.QuestionnaireSubmission{ID: id, TemplateVersion: 2}, nil
}

// mockTemplateService is a configurable mock for template handler tests.
type mockTemplateService struct {
	template  *models.QuestionnaireTemplate
	templates []*models.QuestionnaireTemplate
	version   *models.TemplateVersion
	versions  []*models.TemplateVersion
	err       error

	savedBase int
	saved     *models.QuestionnaireTemplate
}

func (m *mockTemplateService) Get(ctx context.Context, id string) (*models.QuestionnaireTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.template != nil {
		return m.template, nil
	}
	return &models.QuestionnaireTemplate{ID: id, Name: "Gate 0", Version: 1}, nil
}

func (m *mockTemplateService) List(ctx context.Context) ([]*models.QuestionnaireTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.templates, nil
}

func (m *mockTemplateService) Save(ctx context.Context, user models.AuthUser, template *models.QuestionnaireTemplate, baseVersion int) (*models.QuestionnaireTemplate, error) {
	m.saved = template
	m.savedBase = baseVersion
	if m.err != nil {
		return nil, m.err
	}
	if m.template != nil {
		return m.template, nil
	}
	template.Version = baseVersion + 1
	return template, nil
}

func (m *mockTemplateService) GetVersion(ctx context.Context, id string, version int) (*models.TemplateVersion, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.version != nil {
		return m.version, nil
	}
	return &models.TemplateVersion{TemplateID: id, Version: version}, nil
}

func (m *mockTemplateService) ListVersions(ctx context.Context, id string) ([]*models.TemplateVersion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.versions, nil
}

func (m *mockTemplateService) Seed(ctx context.Context, path string) error {
	return m.err
}

// mockAuthService implements auth.Service for logout tests.
type mockAuthService struct {
	session  *auth.Session
	err      error
	clearErr error

	cleared bool
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockAuthService) IssueSession(w http.ResponseWriter, r *http.Request, user models.AuthUser) (*auth.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &auth.Session{User: user, IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockAuthService) ClearSession(w http.ResponseWriter, r *http.Request) error {
	m.cleared = true
	return m.clearErr
}
