package ingest

import "errors"

// Sentinel kinds for scorecard validation failures.
var (
	ErrNoTeams      = errors.New("scorecard has no teams")
	ErrNoDate       = errors.New("scorecard has no dates")
	ErrBadDate      = errors.New("scorecard date is not YYYY-MM-DD")
	ErrNoRegistry   = errors.New("scorecard has no player registry")
	ErrNoInnings    = errors.New("scorecard has no innings")
	ErrEmptyOver    = errors.New("over has no deliveries")
	ErrMissingActor = errors.New("delivery is missing batter or bowler")
)
