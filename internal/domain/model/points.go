package model

import "time"

// PlayerMatchPoints is a player's final points for one match, broken down
// by category. Immutable once the scoring pass completes.
type PlayerMatchPoints struct {
	PlayerID string `json:"player_id"`
	Batting  int    `json:"batting"`
	Bowling  int    `json:"bowling"`
	Fielding int    `json:"fielding"`
	Total    int    `json:"total"`
}

// HistoricalRecord is one ground-truth row: a player's actual fantasy
// points in one completed match. Append-only.
type HistoricalRecord struct {
	PlayerID  string
	MatchID   string
	MatchDate time.Time
	ActualFP  float64
}
