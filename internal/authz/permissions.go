package authz

import (
	"fmt"

	"avd/pkg/domain"
)

// Permission names one capability checked at the mutation boundary.
type Permission string

const (
	PermViewEmployees      Permission = "view_employees"
	PermCreateEmployees    Permission = "create_employees"
	PermUpdateEmployees    Permission = "update_employees"
	PermDeleteEmployees    Permission = "delete_employees"
	PermViewEvaluations    Permission = "view_evaluations"
	PermCreateEvaluations  Permission = "create_evaluations"
	PermUpdateEvaluations  Permission = "update_evaluations"
	PermReviewEvaluations  Permission = "review_evaluations"
	PermApproveEvaluations Permission = "approve_evaluations"
	PermManageCycles       Permission = "manage_cycles"
	PermViewAuditLog       Permission = "view_audit_log"
	PermViewOwnProfile     Permission = "view_own_profile"
	PermUpdateOwnProfile   Permission = "update_own_profile"
	PermViewOwnEvaluations Permission = "view_own_evaluations"
)

// AllPermissions lists every permission in a stable order.
var AllPermissions = []Permission{
	PermViewEmployees,
	PermCreateEmployees,
	PermUpdateEmployees,
	PermDeleteEmployees,
	PermViewEvaluations,
	PermCreateEvaluations,
	PermUpdateEvaluations,
	PermReviewEvaluations,
	PermApproveEvaluations,
	PermManageCycles,
	PermViewAuditLog,
	PermViewOwnProfile,
	PermUpdateOwnProfile,
	PermViewOwnEvaluations,
}

func (p Permission) String() string { return string(p) }

type permissionSet map[Permission]struct{}

func setOf(perms ...Permission) permissionSet {
	s := make(permissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// rolePermissions is resolved once at startup. Admin is granted everything
// here as well, though checks short-circuit before consulting the table.
var rolePermissions = buildTable()

func buildTable() map[domain.Role]permissionSet {
	table := make(map[domain.Role]permissionSet, len(domain.AllRoles))
	for _, role := range domain.AllRoles {
		table[role] = permissionsFor(role)
	}
	return table
}

func permissionsFor(role domain.Role) permissionSet {
	switch role {
	case domain.RoleAdmin:
		return setOf(AllPermissions...)
	case domain.RoleHR:
		return setOf(
			PermViewEmployees,
			PermCreateEmployees,
			PermUpdateEmployees,
			PermViewEvaluations,
			PermCreateEvaluations,
			PermUpdateEvaluations,
			PermManageCycles,
			PermViewAuditLog,
		)
	case domain.RoleManager:
		return setOf(
			PermViewEmployees,
			PermViewEvaluations,
			PermUpdateEvaluations,
			PermReviewEvaluations,
			PermApproveEvaluations,
		)
	case domain.RoleContributor:
		return setOf(
			PermViewOwnProfile,
			PermUpdateOwnProfile,
			PermViewOwnEvaluations,
		)
	default:
		panic(fmt.Sprintf("authz: no permission set for role %q", role))
	}
}

// PermissionsFor returns the permissions granted to role in AllPermissions order.
func PermissionsFor(role domain.Role) []Permission {
	set := rolePermissions[role]
	out := make([]Permission, 0, len(set))
	for _, p := range AllPermissions {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// HasPermission reports whether role grants p.
func HasPermission(role domain.Role, p Permission) bool {
	if role == domain.RoleAdmin {
		return true
	}
	_, ok := rolePermissions[role][p]
	return ok
}
