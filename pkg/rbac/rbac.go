// Package rbac is the single place capability decisions live. Every
// function is pure: (user, resource) in, boolean out, no I/O, so the
// full role x action surface can be table-tested.
package rbac

import (
	"strings"

	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// restrictedRoutes maps route prefixes to the roles allowed to visit
// them. Paths absent from the table are open to any authenticated
// user. PDM never consults the table.
var restrictedRoutes = map[string][]models.Role{
	"/api/admin":           {models.RolePDM},
	"/settings/templates":  {models.RolePDM},
	"/settings/thresholds": {models.RolePDM},
}

// ownsPartner reports whether the user is the named PAM owner of the
// partner record.
func ownsPartner(user models.AuthUser, partner *models.PartnerRecord) bool {
	return partner != nil && partner.PAMOwner == user.Email
}

// CanAccessPartner grants PDM unconditionally and PAM only when they
// own the record.
func CanAccessPartner(user models.AuthUser, partner *models.PartnerRecord) bool {
	if user.Role.IsAdmin() {
		return true
	}
	return ownsPartner(user, partner)
}

// CanEditPartner is the access predicate plus record existence.
func CanEditPartner(user models.AuthUser, partner *models.PartnerRecord) bool {
	return partner != nil && CanAccessPartner(user, partner)
}

// CanDeletePartner restricts deletion to the admin role.
func CanDeletePartner(user models.AuthUser) bool {
	return user.Role.IsAdmin()
}

// CanEditQuestionnaire gates submission creation and edits for a
// partner's questionnaires.
func CanEditQuestionnaire(user models.AuthUser, partner *models.PartnerRecord) bool {
	if user.Role.IsAdmin() {
		return true
	}
	return ownsPartner(user, partner)
}

// CanEditTemplates restricts template mutation to the admin role.
func CanEditTemplates(user models.AuthUser) bool {
	return user.Role.IsAdmin()
}

// FilterPartnersByRole returns the subset of partners the user may
// see. PDM sees everything; PAM sees only records they own.
func FilterPartnersByRole(partners []*models.PartnerRecord, user models.AuthUser) []*models.PartnerRecord {
	if user.Role.IsAdmin() {
		return partners
	}

	visible := make([]*models.PartnerRecord, 0, len(partners))
	for _, p := range partners {
		if ownsPartner(user, p) {
			visible = append(visible, p)
		}
	}
	return visible
}

// CanAccessRoute checks the pathname against the restricted-route
// table. PDM bypasses the table; anyone else is allowed unless a
// matching entry excludes their role.
func CanAccessRoute(user models.AuthUser, pathname string) bool {
	if user.Role.IsAdmin() {
		return true
	}

	for route, roles := range restrictedRoutes {
		if !routeMatches(route, pathname) {
			continue
		}
		for _, r := range roles {
			if user.Role == r {
				return true
			}
		}
		return false
	}
	return true
}

// routeMatches reports whether pathname equals the route or sits
// beneath it as a sub-path.
func routeMatches(route, pathname string) bool {
	return pathname == route || strings.HasPrefix(pathname, route+"/")
}
