package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/launchgate-inc/launchgate-engine/pkg/kvstore"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

const partnersCollection = "partners"

// PartnerRepository defines the interface for partner record data access.
type PartnerRepository interface {
	Create(ctx context.Context, partner *models.PartnerRecord) error
	Get(ctx context.Context, id uuid.UUID) (*models.PartnerRecord, error)
	List(ctx context.Context) ([]*models.PartnerRecord, error)
	Update(ctx context.Context, partner *models.PartnerRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// partnerRepository implements PartnerRepository on the key-value store,
// one JSON blob per partner keyed by the record id.
type partnerRepository struct {
	store kvstore.Store
}

// NewPartnerRepository creates a new partner repository.
func NewPartnerRepository(store kvstore.Store) PartnerRepository {
	return &partnerRepository{store: store}
}

// Create persists a new partner record, generating an id when none is set.
func (r *partnerRepository) Create(ctx context.Context, partner *models.PartnerRecord) error {
	if partner.ID == uuid.Nil {
		partner.ID = uuid.New()
	}

	now := time.Now().UTC()
	partner.CreatedAt = now
	partner.UpdatedAt = now

	data, err := json.Marshal(partner)
	if err != nil {
		return fmt.Errorf("failed to marshal partner: %w", err)
	}

	return r.store.Set(ctx, partnersCollection, partner.ID.String(), data)
}

// Get retrieves a partner record by id.
func (r *partnerRepository) Get(ctx context.Context, id uuid.UUID) (*models.PartnerRecord, error) {
	data, err := r.store.Get(ctx, partnersCollection, id.String())
	if err != nil {
		return nil, err
	}

	var partner models.PartnerRecord
	if err := json.Unmarshal(data, &partner); err != nil {
		return nil, fmt.Errorf("failed to unmarshal partner %s: %w", id, err)
	}

	return &partner, nil
}

// List returns every partner record, newest first. Role-based filtering
// happens above this layer.
func (r *partnerRepository) List(ctx context.Context) ([]*models.PartnerRecord, error) {
	records, err := r.store.List(ctx, partnersCollection)
	if err != nil {
		return nil, err
	}

	partners := make([]*models.PartnerRecord, 0, len(records))
	for key, data := range records {
		var partner models.PartnerRecord
		if err := json.Unmarshal(data, &partner); err != nil {
			return nil, fmt.Errorf("failed to unmarshal partner %s: %w", key, err)
		}
		partners = append(partners, &partner)
	}

	sort.Slice(partners, func(i, j int) bool {
		if !partners[i].CreatedAt.Equal(partners[j].CreatedAt) {
			return partners[i].CreatedAt.After(partners[j].CreatedAt)
		}
		return partners[i].PartnerName < partners[j].PartnerName
	})

	return partners, nil
}

// Update overwrites an existing partner record. Writes are whole-record:
// concurrent editors are last-writer-wins, which is an accepted limitation
// of the blob store.
func (r *partnerRepository) Update(ctx context.Context, partner *models.PartnerRecord) error {
	if _, err := r.store.Get(ctx, partnersCollection, partner.ID.String()); err != nil {
		return err
	}

	partner.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(partner)
	if err != nil {
		return fmt.Errorf("failed to marshal partner: %w", err)
	}

	return r.store.Set(ctx, partnersCollection, partner.ID.String(), data)
}

// Delete removes a partner record by id.
func (r *partnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, partnersCollection, id.String())
}

// Ensure partnerRepository implements PartnerRepository at compile time.
var _ PartnerRepository = (*partnerRepository)(nil)
