package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/audit"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/rbac"
	"github.com/launchgate-inc/launchgate-engine/pkg/repositories"
)

// PartnerService provides partner record operations with ownership
// checks applied before any read or write.
type PartnerService interface {
	// Create validates and persists a new partner record, initializing its
	// gate progress at pre-contract.
	Create(ctx context.Context, user models.AuthUser, partner *models.PartnerRecord) (*models.PartnerRecord, error)

	// Get returns one partner record if the user may see it.
	Get(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.PartnerRecord, error)

	// List returns the partner records visible to the user.
	List(ctx context.Context, user models.AuthUser) ([]*models.PartnerRecord, error)

	// Update overwrites a partner's business fields. Gate state is owned by
	// the gate service and survives the update untouched.
	Update(ctx context.Context, user models.AuthUser, partner *models.PartnerRecord) (*models.PartnerRecord, error)

	// Delete removes a partner record. Admin only.
	Delete(ctx context.Context, user models.AuthUser, id uuid.UUID) error
}

type partnerService struct {
	repo    repositories.PartnerRepository
	auditor *audit.PipelineAuditor
	logger  *zap.Logger
}

// NewPartnerService creates a new PartnerService.
func NewPartnerService(repo repositories.PartnerRepository, auditor *audit.PipelineAuditor, logger *zap.Logger) PartnerService {
	return &partnerService{
		repo:    repo,
		auditor: auditor,
		logger:  logger.Named("partner-service"),
	}
}

var _ PartnerService = (*partnerService)(nil)

// validatePartner accumulates field errors so the caller sees every
// problem in one response.
func validatePartner(partner *models.PartnerRecord) error {
	verr := &apperrors.ValidationError{}

	if partner.PartnerName == "" {
		verr.Add("partnerName", "is required")
	}
	if partner.PAMOwner == "" {
		verr.Add("pamOwner", "is required")
	}
	if partner.ContractType != "" && !models.IsValidContractType(partner.ContractType) {
		verr.Add("contractType", "must be one of PPA, Distribution, Sales-Agent, Other")
	}
	if partner.Tier != "" && !models.IsValidTier(partner.Tier) {
		verr.Add("tier", "must be one of tier-0, tier-1, tier-2")
	}
	if partner.CCV < 0 {
		verr.Add("ccv", "must not be negative")
	}
	if partner.LRP < 0 {
		verr.Add("lrp", "must not be negative")
	}

	return verr.ErrOrNil()
}

func (s *partnerService) Create(ctx context.Context, user models.AuthUser, partner *models.PartnerRecord) (*models.PartnerRecord, error) {
	if err := validatePartner(partner); err != nil {
		return nil, err
	}

	// Gate state always starts at the top of the pipeline regardless of
	// what the caller sent.
	partner.CurrentGate = models.GatePreContract
	partner.Gates = models.NewGateProgressMap(time.Now().UTC())

	if err := s.repo.Create(ctx, partner); err != nil {
		return nil, err
	}

	s.logger.Info("Partner created",
		zap.String("partner_id", partner.ID.String()),
		zap.String("partner_name", partner.PartnerName),
		zap.String("pam_owner", partner.PAMOwner),
		zap.String("created_by", user.ID))

	return partner, nil
}

func (s *partnerService) Get(ctx context.Context, user models.AuthUser, id uuid.UUID) (*models.PartnerRecord, error) {
	partner, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rbac.CanAccessPartner(user, partner) {
		s.auditor.LogAccessDenied(user, "view", "partner/"+id.String())
		return nil, apperrors.ErrForbidden
	}

	return partner, nil
}

func (s *partnerService) List(ctx context.Context, user models.AuthUser) ([]*models.PartnerRecord, error) {
	partners, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return rbac.FilterPartnersByRole(partners, user), nil
}

func (s *partnerService) Update(ctx context.Context, user models.AuthUser, partner *models.PartnerRecord) (*models.PartnerRecord, error) {
	existing, err := s.repo.Get(ctx, partner.ID)
	if err != nil {
		return nil, err
	}

	if !rbac.CanEditPartner(user, existing) {
		s.auditor.LogAccessDenied(user, "edit", "partner/"+partner.ID.String())
		return nil, apperrors.ErrForbidden
	}

	if err := validatePartner(partner); err != nil {
		return nil, err
	}

	// Gate state and creation time are not editable through this path.
	partner.CurrentGate = existing.CurrentGate
	partner.Gates = existing.Gates
	partner.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, partner); err != nil {
		return nil, err
	}

	s.logger.Info("Partner updated",
		zap.String("partner_id", partner.ID.String()),
		zap.String("updated_by", user.ID))

	return partner, nil
}

func (s *partnerService) Delete(ctx context.Context, user models.AuthUser, id uuid.UUID) error {
	if !rbac.CanDeletePartner(user) {
		s.auditor.LogAccessDenied(user, "delete", "partner/"+id.String())
		return apperrors.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Partner deleted",
		zap.String("partner_id", id.String()),
		zap.String("deleted_by", user.ID))

	return nil
}
