package domain

// View is the current user's standing within one project.
type View struct {
	Membership   *Member
	Role         Role
	Capabilities Capabilities
	IsAdmin      bool
}

// Resolve finds the membership of userID in p. A user who is not a member
// gets a zero view, which hides every mutating control; the API still
// decides what is allowed.
func Resolve(p *Project, userID string) View {
	m := p.FindMember(userID)
	if m == nil {
		return View{Role: RoleUnknown}
	}
	role := ParseRole(string(m.Role))
	return View{
		Membership:   m,
		Role:         role,
		Capabilities: CapabilitiesFor(role),
		IsAdmin:      role == RoleAdmin,
	}
}
