package domain

import (
	dErrors "fieldsafe/pkg/domain-errors"
)

// Role is the personnel role a person fills on a worksite.
type Role string

const (
	// RoleFieldExpert performs on-site safety inspections.
	RoleFieldExpert Role = "field_expert"
	// RolePhysician provides occupational health services.
	RolePhysician Role = "physician"
	// RoleSafetySupport is the specialized support role, only applicable
	// to very dangerous worksites with more than ten employees.
	RoleSafetySupport Role = "safety_support"
)

// Roles lists every personnel role, in slot order.
func Roles() []Role {
	return []Role{RoleFieldExpert, RolePhysician, RoleSafetySupport}
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleFieldExpert, RolePhysician, RoleSafetySupport:
		return r, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role: %q", s)
}

func (r Role) String() string { return string(r) }

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
