package domain

import "strings"

// Role is the closed set of project roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
	RoleUnknown   Role = ""
)

// Roles lists the assignable roles in display order.
var Roles = []Role{RoleAdmin, RoleDeveloper, RoleTester}

// ParseRole maps a raw role string onto the enumeration. Anything that is
// not a known role becomes RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleDeveloper:
		return RoleDeveloper
	case RoleTester:
		return RoleTester
	}
	return RoleUnknown
}

func (r Role) Valid() bool { return ParseRole(string(r)) != RoleUnknown }

// Capabilities are the mutating actions a role exposes in the UI.
// The API remains the authority and rejects anything it disallows.
type Capabilities struct {
	CanEditProject   bool
	CanDeleteProject bool
	CanManageMembers bool
	CanAssign        bool
}

var capabilityTable = map[Role]Capabilities{
	RoleAdmin: {
		CanEditProject:   true,
		CanDeleteProject: true,
		CanManageMembers: true,
		CanAssign:        true,
	},
	RoleDeveloper: {},
	RoleTester:    {},
}

// CapabilitiesFor looks up r in the capability table.
func CapabilitiesFor(r Role) Capabilities {
	return capabilityTable[ParseRole(string(r))]
}
