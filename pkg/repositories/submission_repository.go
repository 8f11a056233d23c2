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

const submissionsCollection = "submissions"

// SubmissionRepository defines the interface for questionnaire submission
// data access.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.QuestionnaireSubmission) error
	Get(ctx context.Context, id uuid.UUID) (*models.QuestionnaireSubmission, error)
	Update(ctx context.Context, submission *models.QuestionnaireSubmission) error
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*models.QuestionnaireSubmission, error)
}

// submissionRepository implements SubmissionRepository on the key-value
// store, one JSON blob per submission keyed by the submission id.
type submissionRepository struct {
	store kvstore.Store
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(store kvstore.Store) SubmissionRepository {
	return &submissionRepository{store: store}
}

// Create persists a new submission, generating an id when none is set.
func (r *submissionRepository) Create(ctx context.Context, submission *models.QuestionnaireSubmission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}

	now := time.Now().UTC()
	submission.CreatedAt = now
	submission.UpdatedAt = now

	data, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	return r.store.Set(ctx, submissionsCollection, submission.ID.String(), data)
}

// Get retrieves a submission by id.
func (r *submissionRepository) Get(ctx context.Context, id uuid.UUID) (*models.QuestionnaireSubmission, error) {
	data, err := r.store.Get(ctx, submissionsCollection, id.String())
	if err != nil {
		return nil, err
	}

	var submission models.QuestionnaireSubmission
	if err := json.Unmarshal(data, &submission); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission %s: %w", id, err)
	}

	return &submission, nil
}

// Update overwrites an existing submission in place. CreatedAt and the
// template version pin are preserved by the caller; only UpdatedAt is
// stamped here.
func (r *submissionRepository) Update(ctx context.Context, submission *models.QuestionnaireSubmission) error {
	if _, err := r.store.Get(ctx, submissionsCollection, submission.ID.String()); err != nil {
		return err
	}

	submission.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	return r.store.Set(ctx, submissionsCollection, submission.ID.String(), data)
}

// ListByPartner returns every submission for one partner, oldest first so
// gate history reads in chronological order.
func (r *submissionRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*models.QuestionnaireSubmission, error) {
	records, err := r.store.List(ctx, submissionsCollection)
	if err != nil {
		return nil, err
	}

	submissions := make([]*models.QuestionnaireSubmission, 0)
	for key, data := range records {
		var submission models.QuestionnaireSubmission
		if err := json.Unmarshal(data, &submission); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission %s: %w", key, err)
		}
		if submission.PartnerID != partnerID {
			continue
		}
		submissions = append(submissions, &submission)
	}

	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].CreatedAt.Before(submissions[j].CreatedAt)
	})

	return submissions, nil
}

// Ensure submissionRepository implements SubmissionRepository at compile time.
var _ SubmissionRepository = (*submissionRepository)(nil)
