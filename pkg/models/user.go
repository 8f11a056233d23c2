package models

// Role is a user's operational role in the onboarding pipeline.
type Role string

const (
	// RolePAM is a Partner Account Manager, scoped to the partners they own.
	RolePAM Role = "PAM"
	// RolePDM is a Partner Development Manager. PDM doubles as the
	// administrator role and is granted every capability; if a dedicated
	// admin role is ever split out, pkg/rbac is the only place that should
	// need to change.
	RolePDM Role = "PDM"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RolePAM, RolePDM}

// IsValidRole checks if the given role is valid.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// IsAdmin returns true for the role that carries blanket admin rights.
func (r Role) IsAdmin() bool {
	return r == RolePDM
}

// AuthUser is the authenticated caller resolved from session credentials.
// It is reconstructed per request and never persisted by this service.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}
