package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/audit"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/rbac"
	"github.com/launchgate-inc/launchgate-engine/pkg/repositories"
)

// GateService moves partners through the onboarding pipeline. It is the
// only writer of PartnerRecord.CurrentGate and the per-gate progress
// metadata; nothing else may touch those fields.
type GateService interface {
	// RequestChange handles an explicit gate-change request. One step
	// forward is granted to anyone who can see the partner once the current
	// gate's questionnaire has passed; anything else requires the admin
	// role and is audited as an override.
	RequestChange(ctx context.Context, user models.AuthUser, partnerID uuid.UUID, target models.GateID) (*models.PartnerRecord, error)

	// AdvanceFromSubmission moves the partner one gate forward when the
	// given submission is a passing answer to the current gate's
	// questionnaire. Anything else is a no-op: re-submissions for earlier
	// gates never move a partner backward. Returns whether an advance
	// happened.
	AdvanceFromSubmission(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.PartnerRecord, bool, error)
}

type gateService struct {
	partnerRepo    repositories.PartnerRepository
	submissionRepo repositories.SubmissionRepository
	auditor        *audit.PipelineAuditor
	logger         *zap.Logger
}

// NewGateService creates a new GateService.
func NewGateService(partnerRepo repositories.PartnerRepository, submissionRepo repositories.SubmissionRepository, auditor *audit.PipelineAuditor, logger *zap.Logger) GateService {
	return &gateService{
		partnerRepo:    partnerRepo,
		submissionRepo: submissionRepo,
		auditor:        auditor,
		logger:         logger.Named("gate-service"),
	}
}

var _ GateService = (*gateService)(nil)

// applyGateChange rewrites the partner's gate map around the new
// position: everything before the target is completed, the target is in
// progress, everything after reverts to not started. Existing stamps are
// kept where they still make sense so a backward override does not erase
// when earlier gates actually happened.
func applyGateChange(partner *models.PartnerRecord, target models.GateID, now time.Time) {
	targetPos := target.Position()

	for _, gate := range models.GateOrder {
		progress := partner.GateProgressFor(gate)
		switch {
		case gate.Position() < targetPos:
			progress.Status = models.GateStatusCompleted
			if progress.StartedDate == nil {
				started := now
				progress.StartedDate = &started
			}
			if progress.CompletedDate == nil {
				completed := now
				progress.CompletedDate = &completed
			}
		case gate == target:
			progress.Status = models.GateStatusInProgress
			if progress.StartedDate == nil {
				started := now
				progress.StartedDate = &started
			}
			progress.CompletedDate = nil
		default:
			progress.Status = models.GateStatusNotStarted
			progress.StartedDate = nil
			progress.CompletedDate = nil
		}
	}

	partner.CurrentGate = target
}

func (s *gateService) RequestChange(ctx context.Context, user models.AuthUser, partnerID uuid.UUID, target models.GateID) (*models.PartnerRecord, error) {
	if !models.IsValidGateID(target) {
		return nil, apperrors.NewValidationError("target", fmt.Sprintf("unknown gate %q", target))
	}

	partner, err := s.partnerRepo.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if !rbac.CanAccessPartner(user, partner) {
		s.auditor.LogAccessDenied(user, "gate-change", "partner/"+partnerID.String())
		return nil, apperrors.ErrForbidden
	}

	from := partner.CurrentGate
	if from == target {
		return nil, apperrors.NewValidationError("target", fmt.Sprintf("partner is already at %s", target))
	}

	now := time.Now().UTC()

	if from.CanAdvanceTo(target) {
		passed, err := s.currentGatePassed(ctx, partner)
		if err != nil {
			return nil, err
		}
		if passed {
			applyGateChange(partner, target, now)
			if err := s.partnerRepo.Update(ctx, partner); err != nil {
				return nil, err
			}
			s.auditor.LogGateAdvance(partner.ID, from, target, user)
			return partner, nil
		}
		if !user.Role.IsAdmin() {
			return nil, apperrors.NewValidationError("target",
				fmt.Sprintf("the %s questionnaire must pass before advancing", from))
		}
		// Admin moving forward without a passing verdict is an override.
	} else if !user.Role.IsAdmin() {
		// Skip-ahead and backward moves are reserved for administrators.
		s.auditor.LogAccessDenied(user, "gate-override", "partner/"+partnerID.String())
		return nil, apperrors.ErrForbidden
	}

	applyGateChange(partner, target, now)
	if err := s.partnerRepo.Update(ctx, partner); err != nil {
		return nil, err
	}
	s.auditor.LogGateOverride(partner.ID, from, target, user)

	return partner, nil
}

func (s *gateService) AdvanceFromSubmission(ctx context.Context, user models.AuthUser, submission *models.QuestionnaireSubmission) (*models.PartnerRecord, bool, error) {
	partner, err := s.partnerRepo.Get(ctx, submission.PartnerID)
	if err != nil {
		return nil, false, err
	}

	if submission.OverallStatus != models.OverallStatusPass {
		return partner, false, nil
	}
	if submission.QuestionnaireID != string(partner.CurrentGate) {
		// A passing answer to some other gate's questionnaire, usually a
		// corrected historical submission. Never moves the partner.
		return partner, false, nil
	}

	next, ok := partner.CurrentGate.Next()
	if !ok {
		return partner, false, nil
	}

	from := partner.CurrentGate
	applyGateChange(partner, next, time.Now().UTC())
	if err := s.partnerRepo.Update(ctx, partner); err != nil {
		return nil, false, err
	}

	s.auditor.LogGateAdvance(partner.ID, from, next, user)
	s.logger.Info("Partner advanced on passing submission",
		zap.String("partner_id", partner.ID.String()),
		zap.String("submission_id", submission.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(next)))

	return partner, true, nil
}

// currentGatePassed reports whether the most recently updated submission
// for the partner's current gate carries a passing verdict.
func (s *gateService) currentGatePassed(ctx context.Context, partner *models.PartnerRecord) (bool, error) {
	submissions, err := s.submissionRepo.ListByPartner(ctx, partner.ID)
	if err != nil {
		return false, err
	}

	var latest *models.QuestionnaireSubmission
	for _, submission := range submissions {
		if submission.QuestionnaireID != string(partner.CurrentGate) {
			continue
		}
		if latest == nil || submission.UpdatedAt.After(latest.UpdatedAt) {
			latest = submission
		}
	}

	return latest != nil && latest.OverallStatus == models.OverallStatusPass, nil
}
