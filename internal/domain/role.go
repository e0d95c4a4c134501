package domain

import (
	"slices"
	"strings"
)

// Role is the RBAC role of a user. Values are the persisted/wire spellings.
type Role string

const (
	RoleDeveloper   Role = "DEVELOPER"
	RoleAdmin       Role = "admin"
	RoleExecutive   Role = "EXECUTIVE"
	RoleOfficer     Role = "OFFICER"
	RoleRadioCenter Role = "radio_center"
	RoleDriver      Role = "driver"
	RoleCommunity   Role = "community"
)

// AllRoles lists every role, highest level first.
var AllRoles = []Role{
	RoleDeveloper,
	RoleAdmin,
	RoleExecutive,
	RoleOfficer,
	RoleRadioCenter,
	RoleDriver,
	RoleCommunity,
}

// StaffRoles are the dispatch-capable roles.
var StaffRoles = []Role{RoleAdmin, RoleDeveloper, RoleOfficer, RoleRadioCenter}

var roleAliases = map[string]Role{
	"DEVELOPER":    RoleDeveloper,
	"DEV":          RoleDeveloper,
	"ADMIN":        RoleAdmin,
	"EXECUTIVE":    RoleExecutive,
	"OFFICER":      RoleOfficer,
	"OFFICE":       RoleOfficer,
	"RADIO_CENTER": RoleRadioCenter,
	"RADIO":        RoleRadioCenter,
	"DRIVER":       RoleDriver,
	"COMMUNITY":    RoleCommunity,
}

// ParseRole normalizes a role string case-insensitively, accepting legacy aliases.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToUpper(strings.TrimSpace(s))]
	return r, ok
}

// Level is informational only; access checks are exact role membership.
func (r Role) Level() int {
	switch r {
	case RoleDeveloper:
		return 100
	case RoleAdmin:
		return 90
	case RoleExecutive:
		return 80
	case RoleOfficer:
		return 70
	case RoleRadioCenter:
		return 60
	case RoleDriver:
		return 40
	case RoleCommunity:
		return 30
	default:
		return 0
	}
}

func (r Role) Valid() bool { return r.Level() > 0 }

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	return slices.Contains(roles, r)
}

func (r Role) IsStaff() bool { return r.In(StaffRoles...) }
