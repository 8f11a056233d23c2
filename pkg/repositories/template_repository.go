package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/launchgate-inc/launchgate-engine/pkg/kvstore"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

const (
	templatesCollection        = "templates"
	templateVersionsCollection = "template_versions"
)

// versionKey builds the immutable version record key, e.g. "gate-0:v3".
func versionKey(templateID string, version int) string {
	return fmt.Sprintf("%s:v%d", templateID, version)
}

// TemplateRepository defines the interface for questionnaire template data
// access. Each template id has one mutable "current" record plus an
// append-only history of version records; SaveVersion is the only write
// that can observe a conflict.
type TemplateRepository interface {
	GetCurrent(ctx context.Context, id string) (*models.QuestionnaireTemplate, error)
	List(ctx context.Context) ([]*models.QuestionnaireTemplate, error)
	SetCurrent(ctx context.Context, template *models.QuestionnaireTemplate) error
	SaveVersion(ctx context.Context, version *models.TemplateVersion) error
	GetVersion(ctx context.Context, id string, version int) (*models.TemplateVersion, error)
	ListVersions(ctx context.Context, id string) ([]*models.TemplateVersion, error)
}

// templateRepository implements TemplateRepository on the key-value store.
type templateRepository struct {
	store kvstore.Store
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(store kvstore.Store) TemplateRepository {
	return &templateRepository{store: store}
}

// GetCurrent retrieves the live template record for an id.
func (r *templateRepository) GetCurrent(ctx context.Context, id string) (*models.QuestionnaireTemplate, error) {
	data, err := r.store.Get(ctx, templatesCollection, id)
	if err != nil {
		return nil, err
	}

	var template models.QuestionnaireTemplate
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template %s: %w", id, err)
	}

	return &template, nil
}

// List returns every current template record ordered by id.
func (r *templateRepository) List(ctx context.Context) ([]*models.QuestionnaireTemplate, error) {
	records, err := r.store.List(ctx, templatesCollection)
	if err != nil {
		return nil, err
	}

	templates := make([]*models.QuestionnaireTemplate, 0, len(records))
	for key, data := range records {
		var template models.QuestionnaireTemplate
		if err := json.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template %s: %w", key, err)
		}
		templates = append(templates, &template)
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	return templates, nil
}

// SetCurrent overwrites the live template record. Callers must have
// already appended the matching version record via SaveVersion.
func (r *templateRepository) SetCurrent(ctx context.Context, template *models.QuestionnaireTemplate) error {
	data, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	return r.store.Set(ctx, templatesCollection, template.ID, data)
}

// SaveVersion appends an immutable version record. Returns ErrConflict
// when the (templateId, version) pair already exists, which is how two
// concurrent editors saving from the same base version are detected.
func (r *templateRepository) SaveVersion(ctx context.Context, version *models.TemplateVersion) error {
	data, err := json.Marshal(version)
	if err != nil {
		return fmt.Errorf("failed to marshal template version: %w", err)
	}

	return r.store.SetNX(ctx, templateVersionsCollection, versionKey(version.TemplateID, version.Version), data)
}

// GetVersion retrieves one immutable version record.
func (r *templateRepository) GetVersion(ctx context.Context, id string, version int) (*models.TemplateVersion, error) {
	data, err := r.store.Get(ctx, templateVersionsCollection, versionKey(id, version))
	if err != nil {
		return nil, err
	}

	var v models.TemplateVersion
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template version %s: %w", versionKey(id, version), err)
	}

	return &v, nil
}

// ListVersions returns a template's version history, oldest first.
func (r *templateRepository) ListVersions(ctx context.Context, id string) ([]*models.TemplateVersion, error) {
	records, err := r.store.List(ctx, templateVersionsCollection)
	if err != nil {
		return nil, err
	}

	prefix := id + ":v"
	versions := make([]*models.TemplateVersion, 0)
	for key, data := range records {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		var v models.TemplateVersion
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template version %s: %w", key, err)
		}
		versions = append(versions, &v)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })

	return versions, nil
}

// Ensure templateRepository implements TemplateRepository at compile time.
var _ TemplateRepository = (*templateRepository)(nil)
