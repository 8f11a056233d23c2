package services

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/audit"
	"github.com/launchgate-inc/launchgate-engine/pkg/evaluation"
	"github.com/launchgate-inc/launchgate-engine/pkg/intake"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/rbac"
	"github.com/launchgate-inc/launchgate-engine/pkg/repositories"
)

// SubmissionService provides questionnaire submission operations. Every
// submission is evaluated against the template version pinned at creation
// time; only a deliberate Migrate moves that pin.
type SubmissionService interface {
	// Create validates, evaluates and persists a new submission, stamping
	// the current template version as its pin. A passing verdict on the
	// partner's current gate triggers an automatic advance; the returned
	// bool reports whether that happened.
	Create(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, bool, error)

	// Get returns one submission if the user may see its partner.
	Get(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error)

	// Update edits a submission in place: answers and signature may change,
	// identity, creation time and the template version pin may not. Sections
	// are re-evaluated against the pinned version. Edits never move gate
	// state; they are corrections, not workflow triggers.
	Update(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, error)

	// ListByPartner returns a partner's submissions in chronological order.
	ListByPartner(ctx context.Context, user models.AuthUser, partnerID uuid.UUID) ([]*models.QuestionnaireSubmission, error)

	// Reevaluate re-runs evaluation against the pinned template version.
	// Admin only; used after evaluator fixes or data repair.
	Reevaluate(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error)

	// Migrate repins the submission to the current template version and
	// re-evaluates against it. Admin only and deliberate; this is the one
	// way an old submission starts answering to a newer template.
	Migrate(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error)
}

type submissionService struct {
	repo        repositories.SubmissionRepository
	partnerRepo repositories.PartnerRepository
	templates   TemplateService
	gates       GateService
	auditor     *audit.PipelineAuditor
	logger      *zap.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	repo repositories.SubmissionRepository,
	partnerRepo repositories.PartnerRepository,
	templates TemplateService,
	gates GateService,
	auditor *audit.PipelineAuditor,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		repo:        repo,
		partnerRepo: partnerRepo,
		templates:   templates,
		gates:       gates,
		auditor:     auditor,
		logger:      logger.Named("submission-service"),
	}
}

var _ SubmissionService = (*submissionService)(nil)

func validateSignature(verr *apperrors.ValidationError, signature *models.Signature) {
	if signature == nil {
		verr.Add("signature", "is required")
		return
	}
	if !models.IsValidSignatureType(signature.Type) {
		verr.Add("signature.type", "must be typed or drawn")
	}
	if signature.Data == "" {
		verr.Add("signature.data", "is required")
	}
	if signature.SignerName == "" {
		verr.Add("signature.signerName", "is required")
	}
	if signature.SignerEmail == "" {
		verr.Add("signature.signerEmail", "is required")
	} else if _, err := mail.ParseAddress(signature.SignerEmail); err != nil {
		verr.Add("signature.signerEmail", "must be a valid email address")
	}
}

func validateSubmissionCreate(submission *models.QuestionnaireSubmission) error {
	verr := &apperrors.ValidationError{}

	if submission.QuestionnaireID == "" {
		verr.Add("questionnaireId", "is required")
	}
	if submission.PartnerID == uuid.Nil {
		verr.Add("partnerId", "is required")
	}
	if submission.SubmittedBy == "" {
		verr.Add("submittedBy", "is required")
	}
	if !models.IsValidRole(submission.SubmittedByRole) {
		verr.Add("submittedByRole", "must be PAM or PDM")
	}
	validateSignature(verr, submission.Signature)

	return verr.ErrOrNil()
}

// evaluate runs the rule evaluator over the submission's sections against
// a template snapshot and stores the verdicts. Evaluation anomalies
// (unknown operators, malformed criteria) have already failed the
// affected sections closed; they are logged here and never abort the
// request.
func (s *submissionService) evaluate(submission *models.QuestionnaireSubmission, snapshot *models.TemplateVersion, at time.Time) {
	statuses, overall, err := evaluation.EvaluateSubmission(submission.Sections, snapshot, at)
	if err != nil {
		s.logger.Error("Evaluation anomalies in submission",
			zap.String("submission_id", submission.ID.String()),
			zap.String("questionnaire_id", submission.QuestionnaireID),
			zap.Int("template_version", snapshot.Version),
			zap.Error(err))
	}

	submission.SectionStatuses = statuses
	submission.OverallStatus = overall
}

// screen runs intake screening over all submitted answers and reports
// findings to the audit log. Findings never block the submission.
func (s *submissionService) screen(partnerID uuid.UUID, submission *models.QuestionnaireSubmission, user models.AuthUser) {
	var findings []*intake.Finding
	for _, section := range submission.Sections {
		findings = append(findings, intake.ScreenFields(section.Fields)...)
	}
	s.auditor.LogSuspiciousPayload(partnerID, submission.ID, user, findings)
}

func (s *submissionService) Create(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, bool, error) {
	if err := validateSubmissionCreate(submission); err != nil {
		return nil, false, err
	}

	partner, err := s.partnerRepo.Get(ctx, submission.PartnerID)
	if err != nil {
		return nil, false, err
	}
	if !rbac.CanEditQuestionnaire(user, partner) {
		s.auditor.LogAccessDenied(user, "submit", "partner/"+partner.ID.String())
		return nil, false, apperrors.ErrForbidden
	}

	template, err := s.templates.Get(ctx, submission.QuestionnaireID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	submission.TemplateVersion = template.Version
	submission.SubmittedAt = now
	if submission.Signature.SignedAt.IsZero() {
		submission.Signature.SignedAt = now
	}

	s.evaluate(submission, template.Snapshot(), now)

	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, false, err
	}

	s.screen(partner.ID, submission, user)

	advanced := false
	if submission.OverallStatus == models.OverallStatusPass {
		// A failed advance leaves the submission intact; the gate can be
		// moved later through an explicit gate-change request.
		if _, ok, err := s.gates.AdvanceFromSubmission(ctx, user, submission); err != nil {
			s.logger.Error("Failed to advance gate after passing submission",
				zap.String("submission_id", submission.ID.String()),
				zap.String("partner_id", partner.ID.String()),
				zap.Error(err))
		} else {
			advanced = ok
		}
	}

	s.logger.Info("Submission created",
		zap.String("submission_id", submission.ID.String()),
		zap.String("partner_id", partner.ID.String()),
		zap.String("questionnaire_id", submission.QuestionnaireID),
		zap.Int("template_version", submission.TemplateVersion),
		zap.String("overall_status", string(submission.OverallStatus)),
		zap.Bool("gate_advanced", advanced))

	return submission, advanced, nil
}

func (s *submissionService) Get(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error) {
	submission, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	partner, err := s.partnerRepo.Get(ctx, submission.PartnerID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanAccessPartner(user, partner) {
		s.auditor.LogAccessDenied(user, "view", "submission/"+id.String())
		return nil, apperrors.ErrForbidden
	}

	return submission, nil
}

func (s *submissionService) Update(ctx context.Context, user models.AuthUser, incoming *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, error) {
	existing, err := s.repo.Get(ctx, incoming.ID)
	if err != nil {
		return nil, err
	}

	partner, err := s.partnerRepo.Get(ctx, existing.PartnerID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanEditQuestionnaire(user, partner) {
		s.auditor.LogAccessDenied(user, "edit", "submission/"+incoming.ID.String())
		return nil, apperrors.ErrForbidden
	}

	if incoming.Signature != nil {
		verr := &apperrors.ValidationError{}
		validateSignature(verr, incoming.Signature)
		if err := verr.ErrOrNil(); err != nil {
			return nil, err
		}
		if incoming.Signature.SignedAt.IsZero() {
			incoming.Signature.SignedAt = time.Now().UTC()
		}
		existing.Signature = incoming.Signature
	}
	if incoming.Sections != nil {
		existing.Sections = incoming.Sections
	}

	// Edits answer to the template version pinned at creation, not to
	// whatever the template looks like today.
	snapshot, err := s.templates.GetVersion(ctx, existing.QuestionnaireID, existing.TemplateVersion)
	if err != nil {
		return nil, err
	}

	s.evaluate(existing, snapshot, time.Now().UTC())

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.screen(partner.ID, existing, user)

	s.logger.Info("Submission updated",
		zap.String("submission_id", existing.ID.String()),
		zap.String("partner_id", partner.ID.String()),
		zap.Int("template_version", existing.TemplateVersion),
		zap.String("overall_status", string(existing.OverallStatus)),
		zap.String("updated_by", user.ID))

	return existing, nil
}

func (s *submissionService) ListByPartner(ctx context.Context, user models.AuthUser, partnerID uuid.UUID) ([]*models.QuestionnaireSubmission, error) {
	partner, err := s.partnerRepo.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanAccessPartner(user, partner) {
		s.auditor.LogAccessDenied(user, "view", "partner/"+partnerID.String()+"/submissions")
		return nil, apperrors.ErrForbidden
	}

	return s.repo.ListByPartner(ctx, partnerID)
}

func (s *submissionService) Reevaluate(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error) {
	if !user.Role.IsAdmin() {
		s.auditor.LogAccessDenied(user, "reevaluate", "submission/"+id.String())
		return nil, apperrors.ErrForbidden
	}

	submission, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.templates.GetVersion(ctx, submission.QuestionnaireID, submission.TemplateVersion)
	if err != nil {
		return nil, err
	}

	s.evaluate(submission, snapshot, time.Now().UTC())

	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("Submission re-evaluated",
		zap.String("submission_id", submission.ID.String()),
		zap.Int("template_version", submission.TemplateVersion),
		zap.String("overall_status", string(submission.OverallStatus)),
		zap.String("requested_by", user.ID))

	return submission, nil
}

func (s *submissionService) Migrate(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.QuestionnaireSubmission, error) {
	if !user.Role.IsAdmin() {
		s.auditor.LogAccessDenied(user, "migrate", "submission/"+id.String())
		return nil, apperrors.ErrForbidden
	}

	submission, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	template, err := s.templates.Get(ctx, submission.QuestionnaireID)
	if err != nil {
		return nil, err
	}
	if template.Version == submission.TemplateVersion {
		return submission, nil
	}

	oldVersion := submission.TemplateVersion
	submission.TemplateVersion = template.Version

	s.evaluate(submission, template.Snapshot(), time.Now().UTC())

	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("Submission migrated to current template version",
		zap.String("submission_id", submission.ID.String()),
		zap.Int("from_version", oldVersion),
		zap.Int("to_version", submission.TemplateVersion),
		zap.String("requested_by", user.ID))

	return submission, nil
}
