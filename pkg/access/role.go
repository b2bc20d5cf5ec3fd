package access

// Role is the role stored on a privileged user record. The set is open: any
// string may be stored, only the known ones grant access.
type Role string

const (
	// RoleChair leads a committee.
	RoleChair Role = "chair"
	// RoleCoChair co-leads a committee.
	RoleCoChair Role = "co_chair"
	// RoleDirector oversees committees without leading one.
	RoleDirector Role = "director"
	// RoleSuperadmin sees every committee.
	RoleSuperadmin Role = "superadmin"
)

// Level normalizes a stored role into an access level. Unknown roles grant
// nothing beyond being signed in.
func (r Role) Level() AccessLevel {
	switch r {
	case RoleSuperadmin:
		return AdminEquivalent
	case RoleChair, RoleCoChair, RoleDirector:
		return ChairEquivalent
	default:
		return AuthenticatedOnly
	}
}

// IsCommitteeRole reports whether the role is held within a single
// committee.
func (r Role) IsCommitteeRole() bool {
	return r == RoleChair || r == RoleCoChair
}

// IsKnown reports whether the role is one of the recognized roles.
func (r Role) IsKnown() bool {
	switch r {
	case RoleChair, RoleCoChair, RoleDirector, RoleSuperadmin:
		return true
	}
	return false
}
