package scoring

import "math"

// Per-delivery and milestone point values.
const (
	runPoint         = 1
	boundaryBonus    = 1
	sixBonus         = 2
	duckPenalty      = -2
	wicketPoints     = 25
	lbwBowledBonus   = 8
	maidenOverBonus  = 12
	threeWicketBonus = 6
	fourWicketBonus  = 10
	fiveWicketBonus  = 16
	catchPoints      = 8
	threeCatchBonus  = 4
	stumpingPoints   = 12
	runOutDirect     = 12
	runOutShared     = 6
)

// Eligibility thresholds for the rate-based bonuses.
const (
	strikeRateMinBalls = 10
	economyMinBalls    = 12
	ballsPerOver       = 6
)

// band is one row of an ordered rate table. Bands are checked in order and
// the first match wins, so overlaps cannot depend on map iteration order.
type band struct {
	lower, upper float64
	points       int
}

// Strike-rate bands, half-open [lower, upper). The [70, 130) gap yields no
// adjustment.
var strikeRateBands = []band{
	{170, math.Inf(1), 6},
	{150, 170, 4},
	{130, 150, 2},
	{50, 70, -2},
	{0, 50, -4},
}

// Economy-rate bands, closed [lower, upper]. The (8.0, 10.0) gap
// intentionally yields no adjustment.
var economyBands = []band{
	{0, 5.0, 6},
	{5.01, 6.5, 4},
	{6.51, 8.0, 2},
	{10.0, 11.0, -2},
	{11.01, math.Inf(1), -4},
}

// strikeRatePoints returns the adjustment for a strike rate, or 0.
func strikeRatePoints(sr float64) int {
	for _, b := range strikeRateBands {
		if sr >= b.lower && sr < b.upper {
			return b.points
		}
	}
	return 0
}

// economyPoints returns the adjustment for an economy rate, or 0.
func economyPoints(er float64) int {
	for _, b := range economyBands {
		if er >= b.lower && er <= b.upper {
			return b.points
		}
	}
	return 0
}

// wicketMilestonePoints returns the bonus for an exact wicket count.
// Milestones are mutually exclusive and do not stack.
func wicketMilestonePoints(wickets int) int {
	switch wickets {
	case 3:
		return threeWicketBonus
	case 4:
		return fourWicketBonus
	case 5:
		return fiveWicketBonus
	}
	return 0
}
