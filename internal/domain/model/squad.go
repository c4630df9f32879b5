package model

import "github.com/okian/gully/internal/domain/types"

// SquadPlayer is one player eligible for a match, annotated with
// everything the solver needs.
type SquadPlayer struct {
	PlayerID    string     `json:"player_id"`
	Name        string     `json:"name"`
	Role        types.Role `json:"role"`
	Team        string     `json:"team"`
	Credits     float64    `json:"credits"`
	PredictedFP float64    `json:"predicted_fp"`
}

// Valuation is a player's priced credit value.
type Valuation struct {
	PlayerID string  `json:"player_id"`
	Credits  float64 `json:"credits"`
}

// SelectionResult is a successful XI plus derived aggregates.
type SelectionResult struct {
	Players              []SquadPlayer      `json:"players"`
	TotalPredictedPoints float64            `json:"total_predicted_points"`
	TotalCredits         float64            `json:"total_credits"`
	RoleCounts           map[types.Role]int `json:"role_counts"`
	TeamCounts           map[string]int     `json:"team_counts"`
}
