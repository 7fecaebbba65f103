package domain

import "strings"

// Role is a flat string tag attached to an identity.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	// RoleUnknown is what authorization checks see for tags outside the known set.
	RoleUnknown Role = "unknown"
)

// DefaultRole is assigned at registration when the caller does not supply one.
const DefaultRole = RoleStudent

var knownRoles = map[Role]struct{}{
	RoleStudent:    {},
	RoleInstructor: {},
	RoleAdmin:      {},
}

// ParseRole normalises a tag for authorization decisions. Unrecognised tags map to RoleUnknown.
func ParseRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownRoles[r]; ok {
		return r
	}
	return RoleUnknown
}

// Known reports whether r is one of the recognised roles.
func (r Role) Known() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}
