// Package scoring replays a match's delivery stream into per-player
// fantasy points.
//
// The engine is a deterministic rule machine: per-delivery batting,
// bowling and fielding attribution, a per-over maiden check, and
// end-of-match bonuses computed from each player's own counters. A
// delivery referencing a name absent from the match registry is skipped
// for that actor only; scoring for everyone else continues.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/pkg/logger"
	"github.com/okian/gully/pkg/metrics"
)

// counters is the fixed-shape per-player stat record, zero-initialized on
// first touch.
type counters struct {
	runsScored   int
	ballsFaced   int
	wickets      int
	runsConceded int
	legalBalls   int
	catches      int
}

// points accumulates a player's three scoring categories.
type points struct {
	batting  int
	bowling  int
	fielding int
}

// Engine scores one match at a time. It keeps no state across calls.
type Engine struct {
	log logger.Logger
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

// NewEngine creates a scoring engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score replays the match and returns final points keyed by player id.
// Players absent from the event stream have no entry.
func (e *Engine) Score(ctx context.Context, m *model.Match) (map[string]model.PlayerMatchPoints, error) {
	if m == nil {
		return nil, fmt.Errorf("scoring.Score: %w", ErrNilMatch)
	}
	start := time.Now()

	run := &pass{
		registry: m.Registry,
		stats:    make(map[string]*counters),
		points:   make(map[string]*points),
		log:      e.log,
	}

	for _, innings := range m.Innings {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scoring.Score: %w", err)
		}
		for _, over := range innings.Overs {
			run.processOver(ctx, over)
		}
	}

	run.applyEndOfMatchBonuses()

	out := make(map[string]model.PlayerMatchPoints, len(run.points))
	for id, p := range run.points {
		out[id] = model.PlayerMatchPoints{
			PlayerID: id,
			Batting:  p.batting,
			Bowling:  p.bowling,
			Fielding: p.fielding,
			Total:    p.batting + p.bowling + p.fielding,
		}
	}

	metrics.RecordMatchScored()
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// pass holds the mutable state of one scoring run.
type pass struct {
	registry map[string]string
	stats    map[string]*counters
	points   map[string]*points
	log      logger.Logger
}

// resolve maps a player name to its id, counting misses. A miss returns
// ok=false and the caller skips attribution for that actor only.
func (p *pass) resolve(ctx context.Context, name string) (string, bool) {
	id, ok := p.registry[name]
	if !ok || id == "" {
		metrics.RecordRegistryMiss()
		if p.log != nil {
			p.log.Warn(ctx, "player missing from registry, skipping attribution",
				logger.String("player", name))
		}
		return "", false
	}
	return id, true
}

func (p *pass) statsFor(id string) *counters {
	c, ok := p.stats[id]
	if !ok {
		c = &counters{}
		p.stats[id] = c
	}
	return c
}

func (p *pass) pointsFor(id string) *points {
	pt, ok := p.points[id]
	if !ok {
		pt = &points{}
		p.points[id] = pt
	}
	return pt
}

// processOver scores every delivery in the over and then evaluates the
// maiden-over bonus exactly once.
func (p *pass) processOver(ctx context.Context, over model.Over) {
	runsInOver := 0
	for _, d := range over.Deliveries {
		p.processDelivery(ctx, d)
		runsInOver += d.Runs.Total
	}
	if runsInOver != 0 || len(over.Deliveries) == 0 {
		return
	}
	// Zero total runs across the over, extras included: maiden.
	last := over.Deliveries[len(over.Deliveries)-1]
	if bowlerID, ok := p.resolve(ctx, last.Bowler); ok {
		p.pointsFor(bowlerID).bowling += maidenOverBonus
		metrics.RecordMaidenOver()
	}
}

func (p *pass) processDelivery(ctx context.Context, d model.Delivery) {
	metrics.RecordDeliveryScored()

	batterID, batterOK := p.resolve(ctx, d.Batter)
	bowlerID, bowlerOK := p.resolve(ctx, d.Bowler)

	// Batting attribution.
	if batterOK {
		runs := d.Runs.Batter
		pt := p.pointsFor(batterID)
		pt.batting += runs * runPoint
		if runs == 4 {
			pt.batting += boundaryBonus
		}
		if runs == 6 {
			pt.batting += sixBonus
		}

		st := p.statsFor(batterID)
		st.runsScored += runs
		if !d.IsWide() {
			st.ballsFaced++
		}
	}

	// Bowling and fielding attribution on wickets.
	for _, w := range d.Wickets {
		if bowlerOK && w.Kind != "run out" {
			pt := p.pointsFor(bowlerID)
			pt.bowling += wicketPoints
			p.statsFor(bowlerID).wickets++
			if w.Kind == "bowled" || w.Kind == "lbw" {
				pt.bowling += lbwBowledBonus
			}
		}

		for _, fielder := range w.Fielders {
			fielderID, ok := p.resolve(ctx, fielder)
			if !ok {
				continue
			}
			pt := p.pointsFor(fielderID)
			switch w.Kind {
			case "run out":
				if len(w.Fielders) == 1 {
					pt.fielding += runOutDirect
				} else {
					pt.fielding += runOutShared
				}
			case "stumped":
				pt.fielding += stumpingPoints
			default: // a catch
				pt.fielding += catchPoints
				p.statsFor(fielderID).catches++
			}
		}
	}

	// Bowling stat accounting on every delivery.
	if bowlerOK {
		st := p.statsFor(bowlerID)
		st.runsConceded += d.Runs.Batter + d.Extras.Wides + d.Extras.NoBalls
		if !d.IsWide() && !d.IsNoBall() {
			st.legalBalls++
		}
	}
}

// applyEndOfMatchBonuses applies the once-per-player bonuses that depend
// only on that player's accumulated counters. Zero adjustments never
// create a points record, so a bowler with no attribution stays absent
// from the output.
func (p *pass) applyEndOfMatchBonuses() {
	for id, st := range p.stats {
		if st.ballsFaced >= strikeRateMinBalls {
			sr := float64(st.runsScored) / float64(st.ballsFaced) * 100
			if pts := strikeRatePoints(sr); pts != 0 {
				p.pointsFor(id).batting += pts
			}
		}

		if st.runsScored == 0 && st.ballsFaced > 0 {
			p.pointsFor(id).batting += duckPenalty
		}

		if pts := wicketMilestonePoints(st.wickets); pts != 0 {
			p.pointsFor(id).bowling += pts
		}

		if st.legalBalls >= economyMinBalls {
			overs := float64(st.legalBalls) / ballsPerOver
			er := float64(st.runsConceded) / overs
			if pts := economyPoints(er); pts != 0 {
				p.pointsFor(id).bowling += pts
			}
		}

		if st.catches >= 3 {
			p.pointsFor(id).fielding += threeCatchBonus
		}
	}
}
