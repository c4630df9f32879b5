package selection

import "errors"

// Sentinel kinds for selection errors.
var (
	// ErrInfeasible means no 11-player assignment satisfies every hard
	// constraint. It is always returned explicitly; the solver never
	// degrades to a partial team.
	ErrInfeasible = errors.New("no feasible eleven")
)
