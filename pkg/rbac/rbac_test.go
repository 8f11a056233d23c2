package rbac

import (
	"testing"

	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

const ownerEmail = "maya.chen@launchgate.io"

func pam(email string) models.AuthUser {
	return models.AuthUser{ID: "u-pam", Email: email, Role: models.RolePAM}
}

func pdm() models.AuthUser {
	return models.AuthUser{ID: "u-pdm", Email: "dev.manager@launchgate.io", Role: models.RolePDM}
}

func ownedPartner() *models.PartnerRecord {
	return &models.PartnerRecord{PartnerName: "Acme Grid", PAMOwner: ownerEmail}
}

// TestPartnerCapabilities walks the full role x ownership x action
// surface so every capability has a pinned, defined answer.
func TestPartnerCapabilities(t *testing.T) {
	partner := ownedPartner()

	tests := []struct {
		name          string
		user          models.AuthUser
		partner       *models.PartnerRecord
		access        bool
		edit          bool
		del           bool
		questionnaire bool
	}{
		{"PDM on any partner", pdm(), partner, true, true, true, true},
		{"PDM on missing partner", pdm(), nil, true, false, true, true},
		{"PAM owner", pam(ownerEmail), partner, true, true, false, true},
		{"PAM non-owner", pam("other.pam@launchgate.io"), partner, false, false, false, false},
		{"PAM on missing partner", pam(ownerEmail), nil, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessPartner(tt.user, tt.partner); got != tt.access {
				t.Errorf("CanAccessPartner = %v, want %v", got, tt.access)
			}
			if got := CanEditPartner(tt.user, tt.partner); got != tt.edit {
				t.Errorf("CanEditPartner = %v, want %v", got, tt.edit)
			}
			if got := CanDeletePartner(tt.user); got != tt.del {
				t.Errorf("CanDeletePartner = %v, want %v", got, tt.del)
			}
			if got := CanEditQuestionnaire(tt.user, tt.partner); got != tt.questionnaire {
				t.Errorf("CanEditQuestionnaire = %v, want %v", got, tt.questionnaire)
			}
		})
	}
}

func TestCanEditTemplates(t *testing.T) {
	if !CanEditTemplates(pdm()) {
		t.Error("PDM should be allowed to edit templates")
	}
	if CanEditTemplates(pam(ownerEmail)) {
		t.Error("PAM should not be allowed to edit templates")
	}
}

func TestFilterPartnersByRole(t *testing.T) {
	mine := ownedPartner()
	theirs := &models.PartnerRecord{PartnerName: "Borealis", PAMOwner: "other.pam@launchgate.io"}
	all := []*models.PartnerRecord{mine, theirs}

	t.Run("PDM sees everything", func(t *testing.T) {
		got := FilterPartnersByRole(all, pdm())
		if len(got) != 2 {
			t.Fatalf("expected 2 partners, got %d", len(got))
		}
	})

	t.Run("PAM sees only owned records", func(t *testing.T) {
		got := FilterPartnersByRole(all, pam(ownerEmail))
		if len(got) != 1 {
			t.Fatalf("expected 1 partner, got %d", len(got))
		}
		if got[0] != mine {
			t.Errorf("expected the owned record, got %q", got[0].PartnerName)
		}
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		if got := FilterPartnersByRole(nil, pam(ownerEmail)); len(got) != 0 {
			t.Errorf("expected no partners, got %d", len(got))
		}
	})
}

func TestCanAccessRoute(t *testing.T) {
	tests := []struct {
		name string
		user models.AuthUser
		path string
		want bool
	}{
		{"PDM bypasses the table", pdm(), "/api/admin", true},
		{"PAM blocked from admin", pam(ownerEmail), "/api/admin", false},
		{"PAM blocked from admin sub-path", pam(ownerEmail), "/api/admin/audit", false},
		{"PAM blocked from template settings", pam(ownerEmail), "/settings/templates", false},
		{"PAM allowed on unlisted route", pam(ownerEmail), "/partners", true},
		{"PAM allowed on settings root", pam(ownerEmail), "/settings", true},
		{"prefix requires a path boundary", pam(ownerEmail), "/settings/templatesque", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessRoute(tt.user, tt.path); got != tt.want {
				t.Errorf("CanAccessRoute(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
