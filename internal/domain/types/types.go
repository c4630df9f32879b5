// Package types contains common types shared across the application.
package types

// Role is a player's positional role. The set is closed.
type Role string

// The four positional roles.
const (
	RoleWicketkeeper Role = "WK"
	RoleBatter       Role = "BAT"
	RoleAllRounder   Role = "AR"
	RoleBowler       Role = "BOWL"
)

// Valid reports whether r is one of the four roles.
func (r Role) Valid() bool {
	switch r {
	case RoleWicketkeeper, RoleBatter, RoleAllRounder, RoleBowler:
		return true
	}
	return false
}

// RoleSource identifies which table a role resolution came from.
// Observable so a silent BAT fallback can be told apart from an
// explicit BAT assignment.
type RoleSource string

const (
	RoleSourceSeason  RoleSource = "season"
	RoleSourceGlobal  RoleSource = "global"
	RoleSourceDefault RoleSource = "default"
)

// Credit bounds enforced on every valuation.
const (
	MinCredits = 4.0
	MaxCredits = 11.0
)
