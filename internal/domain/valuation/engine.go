// Package valuation prices every player in a target squad from historical
// performance, without leaking information from the target date onward.
//
// Only rows strictly before the target date ever influence a credit: the
// pre-filter is the engine's core correctness property and is re-derived
// on every call rather than cached.
package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/internal/domain/types"
	"github.com/okian/gully/pkg/logger"
	"github.com/okian/gully/pkg/metrics"
)

// Valuation policy constants.
const (
	defaultCredit      = 6.0 // flat credit when no history exists at all
	fallbackMedian     = 7.5 // role median when a role has no experienced pool
	newcomerHalfWidth  = 0.5
	experiencedMinApps = 10
	compositeWindow    = 10
	meanWeight         = 0.7
	riskWeight         = 0.3
)

// creditBand maps a percentile range to a credit range with linear
// interpolation inside the band. Bands are ordered and checked first
// match wins; the 100th percentile maps to the ceiling exactly.
type creditBand struct {
	minP, maxP float64
	minC, maxC float64
}

var creditBands = []creditBand{
	{90, 100, 10.5, 11.0},
	{70, 90, 9.0, 10.0},
	{30, 70, 7.0, 8.5},
	{0, 30, 4.0, 6.5},
}

// RoleResolver is the role lookup the engine needs.
type RoleResolver interface {
	ResolveDetail(playerID string, date time.Time) (types.Role, types.RoleSource)
}

// Engine computes bounded, time-aware credits.
type Engine struct {
	resolver RoleResolver
	log      logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates a valuation engine over the given role resolver.
func NewEngine(resolver RoleResolver, opts ...Option) *Engine {
	e := &Engine{resolver: resolver}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// playerSignal is one player's pre-match valuation input.
type playerSignal struct {
	playerID    string
	role        types.Role
	appearances int
	composite   float64
}

// Value prices every player in squadIDs using only history strictly
// before targetDate. The history slice is treated as a read-only snapshot.
func (e *Engine) Value(ctx context.Context, history []model.HistoricalRecord, targetDate time.Time, squadIDs []string) (map[string]model.Valuation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("valuation.Value: %w", err)
	}
	start := time.Now()
	defer func() {
		metrics.RecordValuationComputed()
		metrics.RecordValuationLatency(float64(time.Since(start).Milliseconds()))
	}()

	prior := filterBefore(history, targetDate)
	if len(prior) == 0 {
		// First match in the dataset: everyone gets the flat default.
		out := make(map[string]model.Valuation, len(squadIDs))
		for _, id := range squadIDs {
			out[id] = model.Valuation{PlayerID: id, Credits: defaultCredit}
		}
		return out, nil
	}

	signals := e.buildSignals(ctx, prior, targetDate)

	credits := make(map[string]float64, len(signals))
	medians := make(map[types.Role]float64)

	// Experienced players: per-role percentile banding.
	byRole := make(map[types.Role][]playerSignal)
	for _, s := range signals {
		if s.appearances >= experiencedMinApps {
			byRole[s.role] = append(byRole[s.role], s)
		}
	}
	for role, pool := range byRole {
		scores := make([]float64, len(pool))
		for i, s := range pool {
			scores[i] = s.composite
		}
		roleCredits := make([]float64, 0, len(pool))
		for _, s := range pool {
			p := percentileOfScore(scores, s.composite)
			c := bandCredit(p)
			credits[s.playerID] = c
			roleCredits = append(roleCredits, c)
		}
		medians[role] = median(roleCredits)
	}

	// Newcomers: the role's median experienced credit, clamped to the
	// band around it.
	for _, s := range signals {
		if s.appearances >= experiencedMinApps {
			continue
		}
		credits[s.playerID] = newcomerCredit(medians, s.role)
		metrics.RecordNewcomerCredit()
	}

	// Assign to the target squad; a player with no history at all is a
	// newcomer with zero appearances.
	out := make(map[string]model.Valuation, len(squadIDs))
	for _, id := range squadIDs {
		c, ok := credits[id]
		if !ok {
			role, src := e.resolver.ResolveDetail(id, targetDate)
			if src == types.RoleSourceDefault && e.log != nil {
				e.log.Debug(ctx, "role defaulted for unseen player",
					logger.String("player_id", id))
			}
			c = newcomerCredit(medians, role)
			metrics.RecordNewcomerCredit()
		}
		out[id] = model.Valuation{PlayerID: id, Credits: round2(clamp(c, types.MinCredits, types.MaxCredits))}
	}
	return out, nil
}

// filterBefore returns the rows with MatchDate strictly before targetDate,
// in chronological order.
func filterBefore(history []model.HistoricalRecord, targetDate time.Time) []model.HistoricalRecord {
	prior := make([]model.HistoricalRecord, 0, len(history))
	for _, r := range history {
		if r.MatchDate.Before(targetDate) {
			prior = append(prior, r)
		}
	}
	sort.SliceStable(prior, func(i, j int) bool {
		if !prior[i].MatchDate.Equal(prior[j].MatchDate) {
			return prior[i].MatchDate.Before(prior[j].MatchDate)
		}
		return prior[i].MatchID < prior[j].MatchID
	})
	return prior
}

// buildSignals computes each historical player's appearance count and
// composite score from their most recent appearances.
func (e *Engine) buildSignals(ctx context.Context, prior []model.HistoricalRecord, targetDate time.Time) []playerSignal {
	series := make(map[string][]float64)
	order := make([]string, 0)
	for _, r := range prior {
		if _, seen := series[r.PlayerID]; !seen {
			order = append(order, r.PlayerID)
		}
		series[r.PlayerID] = append(series[r.PlayerID], r.ActualFP)
	}

	signals := make([]playerSignal, 0, len(order))
	for _, id := range order {
		fp := series[id]
		recent := fp
		if len(recent) > compositeWindow {
			recent = recent[len(recent)-compositeWindow:]
		}
		role, src := e.resolver.ResolveDetail(id, targetDate)
		if src == types.RoleSourceDefault && e.log != nil {
			e.log.Debug(ctx, "role defaulted during valuation",
				logger.String("player_id", id))
		}
		signals = append(signals, playerSignal{
			playerID:    id,
			role:        role,
			appearances: len(fp),
			composite:   composite(recent),
		})
	}
	return signals
}

// composite blends the mean and the risk-adjusted mean of the recent
// fantasy point series.
func composite(recent []float64) float64 {
	if len(recent) == 0 {
		return 0
	}
	mu := mean(recent)
	sigma := sampleStdev(recent)
	return meanWeight*mu + riskWeight*(mu-sigma)
}

// bandCredit maps a percentile to a credit via the fixed bands, linearly
// interpolated within the matching band.
func bandCredit(p float64) float64 {
	for _, b := range creditBands {
		if p >= b.minP && p < b.maxP {
			return b.minC + (p-b.minP)/(b.maxP-b.minP)*(b.maxC-b.minC)
		}
	}
	// Only the exact 100th percentile falls through.
	return types.MaxCredits
}

// newcomerCredit returns the newcomer price for a role: the median
// experienced credit clamped to half a credit either side, or the
// fallback when the role has no experienced pool.
func newcomerCredit(medians map[types.Role]float64, role types.Role) float64 {
	m, ok := medians[role]
	if !ok {
		m = fallbackMedian
	}
	return clamp(m, m-newcomerHalfWidth, m+newcomerHalfWidth)
}
