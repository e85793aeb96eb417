package models

// Role is an organization membership role. Roles form a total order used for
// "at least role X" checks.
type Role string

const (
	RolePlayer  Role = "player"
	RoleCoach   Role = "coach"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
)

var roleRanks = map[Role]int{
	RolePlayer:  1,
	RoleCoach:   2,
	RoleManager: 3,
	RoleAdmin:   4,
	RoleOwner:   5,
}

// Rank returns the role's position in the hierarchy, or 0 for an unknown role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast reports whether r ranks at or above minimum. Unknown roles never pass.
func (r Role) AtLeast(minimum Role) bool {
	return r.Valid() && minimum.Valid() && r.Rank() >= minimum.Rank()
}

// Invitable reports whether an invitation may grant this role. Ownership is never invited.
func (r Role) Invitable() bool {
	return r.Valid() && r != RoleOwner
}
