package domain

import (
	"strings"

	dErrors "avd/pkg/domain-errors"
)

// Role is the coarse authorization class of an actor.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries (token claims, CLI flags);
// direct casting bypasses validation.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleHR          Role = "rh"
	RoleManager     Role = "gestor"
	RoleContributor Role = "colaborador"
)

// AllRoles lists every supported role in a stable order.
var AllRoles = []Role{RoleAdmin, RoleHR, RoleManager, RoleContributor}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported role: "+s)
	}
	return r, nil
}

// IsValid reports whether r is a supported role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleContributor:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
