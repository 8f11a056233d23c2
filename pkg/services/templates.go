package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/audit"
	"github.com/launchgate-inc/launchgate-engine/pkg/cache"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/rbac"
	"github.com/launchgate-inc/launchgate-engine/pkg/repositories"
)

// TemplateService provides questionnaire template reads, versioned admin
// saves and first-boot seeding.
type TemplateService interface {
	// Get returns the current template for an id, served from a short-TTL
	// cache in front of the store.
	Get(ctx context.Context, id string) (*models.QuestionnaireTemplate, error)

	// List returns every current template.
	List(ctx context.Context) ([]*models.QuestionnaireTemplate, error)

	// Save validates and persists a template edit. baseVersion is the version
	// the editor loaded; a mismatch with the stored version, or a lost race on
	// the version record, returns ErrConflict and the editor must refetch and
	// reapply. Admin only.
	Save(ctx context.Context, user models.AuthUser, template *models.QuestionnaireTemplate, baseVersion int) (*models.QuestionnaireTemplate, error)

	// GetVersion returns one immutable version snapshot.
	GetVersion(ctx context.Context, id string, version int) (*models.TemplateVersion, error)

	// ListVersions returns a template's version history, oldest first.
	ListVersions(ctx context.Context, id string) ([]*models.TemplateVersion, error)

	// Seed loads template definitions from a YAML file and installs any that
	// do not exist yet as version 1. Existing templates are never touched.
	Seed(ctx context.Context, path string) error
}

type templateService struct {
	repo    repositories.TemplateRepository
	cache   *cache.TemplateCache
	auditor *audit.PipelineAuditor
	logger  *zap.Logger
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(repo repositories.TemplateRepository, templateCache *cache.TemplateCache, auditor *audit.PipelineAuditor, logger *zap.Logger) TemplateService {
	return &templateService{
		repo:    repo,
		cache:   templateCache,
		auditor: auditor,
		logger:  logger.Named("template-service"),
	}
}

var _ TemplateService = (*templateService)(nil)

// validateTemplate lints a template definition before it can become a
// version. Field ids must be unique across the whole template and every
// rule must reference a field in its own section with a known operator,
// so nothing the evaluator fails closed on can be authored.
func validateTemplate(t *models.QuestionnaireTemplate) error {
	verr := &apperrors.ValidationError{}

	if t.ID == "" {
		verr.Add("id", "is required")
	}
	if t.Name == "" {
		verr.Add("name", "is required")
	}
	if len(t.Sections) == 0 {
		verr.Add("sections", "must contain at least one section")
	}

	sectionIDs := make(map[string]bool)
	fieldIDs := make(map[string]bool)

	for i, section := range t.Sections {
		if section.ID == "" {
			verr.Add(fmt.Sprintf("sections[%d].id", i), "is required")
		} else if sectionIDs[section.ID] {
			verr.Add(fmt.Sprintf("sections[%d].id", i), fmt.Sprintf("duplicate section id %q", section.ID))
		}
		sectionIDs[section.ID] = true

		sectionFields := make(map[string]bool)
		for j, field := range section.Fields {
			if field.ID == "" {
				verr.Add(fmt.Sprintf("sections[%d].fields[%d].id", i, j), "is required")
			} else if fieldIDs[field.ID] {
				verr.Add(fmt.Sprintf("sections[%d].fields[%d].id", i, j), fmt.Sprintf("duplicate field id %q", field.ID))
			}
			fieldIDs[field.ID] = true
			sectionFields[field.ID] = true

			if field.Label == "" {
				verr.Add(fmt.Sprintf("sections[%d].fields[%d].label", i, j), "is required")
			}
			if !models.IsValidFieldType(field.Type) {
				verr.Add(fmt.Sprintf("sections[%d].fields[%d].type", i, j), fmt.Sprintf("unknown field type %q", field.Type))
			}
			if field.Type.RequiresOptions() && len(field.Options) == 0 {
				verr.Add(fmt.Sprintf("sections[%d].fields[%d].options", i, j), "must list at least one option")
			}
		}

		if section.PassFailCriteria == nil {
			continue
		}
		criteria := section.PassFailCriteria
		if !models.IsValidCriteriaType(criteria.Type) {
			verr.Add(fmt.Sprintf("sections[%d].passFailCriteria.type", i), fmt.Sprintf("unknown criteria type %q", criteria.Type))
		}
		for k, rule := range criteria.Rules {
			if !sectionFields[rule.FieldID] {
				verr.Add(fmt.Sprintf("sections[%d].passFailCriteria.rules[%d].fieldId", i, k),
					fmt.Sprintf("references unknown field %q", rule.FieldID))
			}
			if !models.IsValidOperator(rule.Operator) {
				verr.Add(fmt.Sprintf("sections[%d].passFailCriteria.rules[%d].operator", i, k),
					fmt.Sprintf("unknown operator %q", rule.Operator))
			}
			if rule.Operator == models.OperatorIn && !isArrayValue(rule.Value) {
				verr.Add(fmt.Sprintf("sections[%d].passFailCriteria.rules[%d].value", i, k),
					"operator \"in\" requires an array value")
			}
		}
	}

	return verr.ErrOrNil()
}

func isArrayValue(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	default:
		return false
	}
}

func (s *templateService) Get(ctx context.Context, id string) (*models.QuestionnaireTemplate, error) {
	if template, ok := s.cache.Get(id); ok {
		return template, nil
	}

	template, err := s.repo.GetCurrent(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(id, template)
	return template, nil
}

func (s *templateService) List(ctx context.Context) ([]*models.QuestionnaireTemplate, error) {
	return s.repo.List(ctx)
}

func (s *templateService) Save(ctx context.Context, user models.AuthUser, template *models.QuestionnaireTemplate, baseVersion int) (*models.QuestionnaireTemplate, error) {
	if !rbac.CanEditTemplates(user) {
		s.auditor.LogAccessDenied(user, "edit", "template/"+template.ID)
		return nil, apperrors.ErrForbidden
	}

	if err := validateTemplate(template); err != nil {
		return nil, err
	}

	currentVersion := 0
	current, err := s.repo.GetCurrent(ctx, template.ID)
	switch {
	case err == nil:
		currentVersion = current.Version
	case errors.Is(err, apperrors.ErrNotFound):
		// First save of a new template id.
	default:
		return nil, err
	}

	if baseVersion != currentVersion {
		s.logger.Warn("Template save rejected on stale base version",
			zap.String("template_id", template.ID),
			zap.Int("base_version", baseVersion),
			zap.Int("current_version", currentVersion))
		return nil, apperrors.ErrConflict
	}

	now := time.Now().UTC()
	newVersion := currentVersion + 1

	// Append the immutable version record first. Two editors saving from
	// the same base land on the same version number and SetNX lets exactly
	// one of them through; the loser gets a retryable conflict.
	record := &models.TemplateVersion{
		TemplateID: template.ID,
		Version:    newVersion,
		Name:       template.Name,
		Sections:   template.Sections,
		CreatedAt:  now,
		CreatedBy:  user.Email,
	}
	if err := s.repo.SaveVersion(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, s.resolveVersionConflict(ctx, template.ID, currentVersion, newVersion)
		}
		return nil, err
	}

	// Then swap the current record to the new version.
	template.Version = newVersion
	template.UpdatedAt = now
	template.UpdatedBy = user.Email
	if err := s.repo.SetCurrent(ctx, template); err != nil {
		return nil, err
	}

	s.cache.Invalidate(template.ID)

	s.logger.Info("Template saved",
		zap.String("template_id", template.ID),
		zap.Int("version", newVersion),
		zap.String("updated_by", user.Email))

	return template, nil
}

// resolveVersionConflict handles a lost SetNX race on a version record.
// Usually the competing editor's save completes and a refetch shows the
// new version. But a save that appended its version record and then died
// before swapping the current pointer leaves the number taken while
// current never moves; every later save from the still-correct base
// would lose the same race forever. Detect that orphan and finish the
// pointer swap so the conflict returned here is actually retryable.
func (s *templateService) resolveVersionConflict(ctx context.Context, id string, baseVersion, newVersion int) error {
	current, err := s.repo.GetCurrent(ctx, id)
	switch {
	case err == nil:
		if current.Version != baseVersion {
			// The competing save completed; the caller refetches and
			// reapplies on the new version.
			return apperrors.ErrConflict
		}
	case errors.Is(err, apperrors.ErrNotFound):
		// First-save race where the winner never set a current record.
	default:
		return err
	}

	orphan, err := s.repo.GetVersion(ctx, id, newVersion)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrConflict
		}
		return err
	}

	repaired := &models.QuestionnaireTemplate{
		ID:        orphan.TemplateID,
		Name:      orphan.Name,
		Version:   orphan.Version,
		Sections:  orphan.Sections,
		UpdatedAt: orphan.CreatedAt,
		UpdatedBy: orphan.CreatedBy,
	}
	if err := s.repo.SetCurrent(ctx, repaired); err != nil {
		return err
	}
	s.cache.Invalidate(id)

	s.logger.Warn("Completed interrupted template save",
		zap.String("template_id", id),
		zap.Int("version", orphan.Version),
		zap.String("created_by", orphan.CreatedBy))

	return apperrors.ErrConflict
}

func (s *templateService) GetVersion(ctx context.Context, id string, version int) (*models.TemplateVersion, error) {
	return s.repo.GetVersion(ctx, id, version)
}

func (s *templateService) ListVersions(ctx context.Context, id string) ([]*models.TemplateVersion, error) {
	return s.repo.ListVersions(ctx, id)
}

// seedFile is the on-disk shape of the template seed definitions.
type seedFile struct {
	Templates []*models.QuestionnaireTemplate `yaml:"templates"`
}

func (s *templateService) Seed(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("No template seed file found, skipping", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	seeded := 0
	for _, template := range seed.Templates {
		if err := validateTemplate(template); err != nil {
			return fmt.Errorf("seed template %q is invalid: %w", template.ID, err)
		}

		_, err := s.repo.GetCurrent(ctx, template.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		record := &models.TemplateVersion{
			TemplateID: template.ID,
			Version:    1,
			Name:       template.Name,
			Sections:   template.Sections,
			CreatedAt:  now,
			CreatedBy:  "system",
		}
		if err := s.repo.SaveVersion(ctx, record); err != nil {
			// Another instance seeding at the same time won the record.
			if errors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return err
		}

		template.Version = 1
		template.UpdatedAt = now
		template.UpdatedBy = "system"
		if err := s.repo.SetCurrent(ctx, template); err != nil {
			return err
		}
		seeded++
	}

	if seeded > 0 {
		s.logger.Info("Templates seeded", zap.Int("count", seeded), zap.String("path", path))
	}

	return nil
}
