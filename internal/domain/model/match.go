// Package model contains domain models passed between layers.
package model

import "time"

// Match is a parsed match event stream plus the metadata the engines need.
// Deliveries reference players by display name; Registry maps names to
// stable player ids.
type Match struct {
	MatchID  string
	Date     time.Time
	Teams    []string
	Players  map[string][]string // team -> player names
	Registry map[string]string   // player name -> player id
	Innings  []Innings
}

// Innings is one team's turn at bat.
type Innings struct {
	Team  string
	Overs []Over
}

// Over is a sequence of deliveries bowled consecutively.
type Over struct {
	Number     int
	Deliveries []Delivery
}

// Delivery is a single ball.
type Delivery struct {
	Batter  string
	Bowler  string
	Runs    Runs
	Extras  Extras
	Wickets []Wicket
}

// Runs carries the run breakdown for a delivery.
type Runs struct {
	Batter int // runs credited to the batter
	Extras int
	Total  int // batter runs + all extras
}

// Extras carries the extra-run flags relevant to scoring.
// Zero means the delivery had none of that extra.
type Extras struct {
	Wides   int
	NoBalls int
	Byes    int
	LegByes int
}

// Wicket records a dismissal on a delivery.
type Wicket struct {
	Kind      string // "bowled", "lbw", "caught", "run out", "stumped", ...
	PlayerOut string
	Fielders  []string // fielder names, present for catches/run-outs/stumpings
}

// IsWide reports whether the delivery was a wide.
func (d Delivery) IsWide() bool { return d.Extras.Wides > 0 }

// IsNoBall reports whether the delivery was a no-ball.
func (d Delivery) IsNoBall() bool { return d.Extras.NoBalls > 0 }

// TeamOf returns the team a player name belongs to, or "" if unknown.
func (m *Match) TeamOf(name string) string {
	for team, names := range m.Players {
		for _, n := range names {
			if n == name {
				return team
			}
		}
	}
	return ""
}
