package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/kvstore"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

func newTemplateRepo() TemplateRepository {
	return NewTemplateRepository(kvstore.NewMemoryStore())
}

func testTemplate(id string, version int) *models.QuestionnaireTemplate {
	return &models.QuestionnaireTemplate{
		ID:      id,
		Name:    "Gate Questionnaire",
		Version: version,
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
						{FieldID: "signed", Operator: models.OperatorEquals, Value: "yes"},
					},
				},
			},
		},
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: "dev.manager@launchgate.io",
	}
}

func versionRecord(id string, version int) *models.TemplateVersion {
	tpl := testTemplate(id, version)
	return &models.TemplateVersion{
		TemplateID: id,
		Version:    version,
		Name:       tpl.Name,
		Sections:   tpl.Sections,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  tpl.UpdatedBy,
	}
}

func TestTemplateRepository_CurrentRoundTrip(t *testing.T) {
	repo := newTemplateRepo()
	ctx := context.Background()

	if err := repo.SetCurrent(ctx, testTemplate("gate-0", 1)); err != nil {
		t.Fatalf("failed to set current template: %v", err)
	}

	got, err := repo.GetCurrent(ctx, "gate-0")
	if err != nil {
		t.Fatalf("failed to get current template: %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if len(got.Sections) != 1 || got.Sections[0].ID != "commercial" {
		t.Fatalf("sections did not survive the round trip: %+v", got.Sections)
	}
	if got.Sections[0].PassFailCriteria == nil || len(got.Sections[0].PassFailCriteria.Rules) != 1 {
		t.Error("criteria did not survive the round trip")
	}
}

func TestTemplateRepository_GetCurrentMissing(t *testing.T) {
	repo := newTemplateRepo()

	_, err := repo.GetCurrent(context.Background(), "gate-9")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateRepository_SaveVersionConflict(t *testing.T) {
	repo := newTemplateRepo()
	ctx := context.Background()

	if err := repo.SaveVersion(ctx, versionRecord("gate-0", 2)); err != nil {
		t.Fatalf("failed to save version: %v", err)
	}

	// A second writer landing on the same version number loses the race.
	err := repo.SaveVersion(ctx, versionRecord("gate-0", 2))
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict on duplicate version, got %v", err)
	}

	// The original record is untouched.
	got, err := repo.GetVersion(ctx, "gate-0", 2)
	if err != nil {
		t.Fatalf("failed to get version: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
}

func TestTemplateRepository_GetVersionMissing(t *testing.T) {
	repo := newTemplateRepo()

	_, err := repo.GetVersion(context.Background(), "gate-0", 7)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateRepository_ListVersions(t *testing.T) {
	repo := newTemplateRepo()
	ctx := context.Background()

	// Saved out of order, plus a template whose id shares a prefix.
	for _, v := range []int{3, 1, 2} {
		if err := repo.SaveVersion(ctx, versionRecord("gate-1", v)); err != nil {
			t.Fatalf("failed to save gate-1 v%d: %v", v, err)
		}
	}
	if err := repo.SaveVersion(ctx, versionRecord("gate-10", 1)); err != nil {
		t.Fatalf("failed to save gate-10 v1: %v", err)
	}

	versions, err := repo.ListVersions(ctx, "gate-1")
	if err != nil {
		t.Fatalf("failed to list versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions for gate-1, got %d", len(versions))
	}
	for i, want := range []int{1, 2, 3} {
		if versions[i].Version != want {
			t.Errorf("versions[%d] = v%d, want v%d", i, versions[i].Version, want)
		}
	}
}

func TestTemplateRepository_ListOrderedByID(t *testing.T) {
	repo := newTemplateRepo()
	ctx := context.Background()

	for _, id := range []string{"gate-2", "gate-0", "pre-contract"} {
		if err := repo.SetCurrent(ctx, testTemplate(id, 1)); err != nil {
			t.Fatalf("failed to set %s: %v", id, err)
		}
	}

	templates, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}
	for i, want := range []string{"gate-0", "gate-2", "pre-contract"} {
		if templates[i].ID != want {
			t.Errorf("templates[%d] = %s, want %s", i, templates[i].ID, want)
		}
	}
}
