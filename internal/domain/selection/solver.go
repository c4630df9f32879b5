// Package selection chooses the optimal legal eleven from a squad.
//
// The objective is lexicographic: maximize predicted points, then
// minimize credits spent, then maximize all-rounders, then prefer the
// lowest sorted player-id list. The search is a depth-first
// branch-and-bound over binary inclusion with feasibility and
// upper-bound pruning; ties on the leading stages are kept alive so the
// later stages decide them, which makes the result reproducible.
package selection

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

// Hard constraints on a legal eleven.
const (
	TeamSize     = 11
	CreditBudget = 100.0
	MaxPerTeam   = 7
)

// Role count bounds.
var (
	roleMin = map[types.Role]int{
		types.RoleWicketkeeper: 1,
		types.RoleBatter:       3,
		types.RoleAllRounder:   1,
		types.RoleBowler:       3,
	}
	roleMax = map[types.Role]int{
		types.RoleWicketkeeper: 4,
		types.RoleBatter:       6,
		types.RoleAllRounder:   4,
		types.RoleBowler:       6,
	}
)

const eps = 1e-9

// Solver selects the optimal eleven from a squad.
type Solver struct {
	log logger.Logger
}

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithLogger sets a custom logger for the solver.
func WithLogger(log logger.Logger) Option {
	return func(s *Solver) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSolver creates a team selection solver.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidate is a complete eleven under comparison.
type candidate struct {
	indices []int
	fp      float64
	credits float64
	ar      int
	ids     []string // sorted ascending, the final tie-break
}

// better reports whether a beats b lexicographically.
func (a *candidate) better(b *candidate) bool {
	if b == nil {
		return true
	}
	if a.fp > b.fp+eps {
		return true
	}
	if a.fp < b.fp-eps {
		return false
	}
	if a.credits < b.credits-eps {
		return true
	}
	if a.credits > b.credits+eps {
		return false
	}
	if a.ar != b.ar {
		return a.ar > b.ar
	}
	for i := range a.ids {
		if a.ids[i] != b.ids[i] {
			return a.ids[i] < b.ids[i]
		}
	}
	return false
}

// Solve returns the optimal legal eleven, or ErrInfeasible when no
// combination satisfies the hard constraints.
func (s *Solver) Solve(ctx context.Context, squad []model.SquadPlayer) (model.SelectionResult, error) {
	start := time.Now()

	if len(squad) < TeamSize {
		metrics.RecordSelectionInfeasible()
		return model.SelectionResult{}, fmt.Errorf("selection.Solve: squad of %d is smaller than %d: %w",
			len(squad), TeamSize, ErrInfeasible)
	}

	search := newSearch(squad)
	search.run(ctx)

	metrics.RecordSolverNodes(search.nodes)
	metrics.RecordSolverLatency(float64(time.Since(start).Milliseconds()))

	if err := ctx.Err(); err != nil {
		return model.SelectionResult{}, fmt.Errorf("selection.Solve: %w", err)
	}
	if search.best == nil {
		metrics.RecordSelectionInfeasible()
		if s.log != nil {
			s.log.Warn(ctx, "no feasible eleven",
				logger.Int("squad_size", len(squad)))
		}
		return model.SelectionResult{}, fmt.Errorf("selection.Solve: role, team or budget constraints unsatisfiable: %w", ErrInfeasible)
	}

	metrics.RecordSelectionSolved()
	return search.result(), nil
}

// search holds the immutable precomputation and the mutable DFS state.
type search struct {
	players []model.SquadPlayer
	teams   []string
	multi   bool

	prefFP      []float64            // prefix sums of predicted points in sort order
	suffRole    []map[types.Role]int // role availability from index i on
	suffTeam    []map[string]int     // team availability from index i on
	suffCredits [][]float64          // up to TeamSize smallest credits from index i on, ascending

	chosen    []int
	fp        float64
	credits   float64
	roleCount map[types.Role]int
	teamCount map[string]int

	best  *candidate
	nodes int
}

func newSearch(squad []model.SquadPlayer) *search {
	players := make([]model.SquadPlayer, len(squad))
	copy(players, squad)
	// Point-rich players first so the bound tightens early; id order
	// keeps the walk deterministic.
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].PredictedFP != players[j].PredictedFP {
			return players[i].PredictedFP > players[j].PredictedFP
		}
		return players[i].PlayerID < players[j].PlayerID
	})

	n := len(players)
	st := &search{
		players:     players,
		prefFP:      make([]float64, n+1),
		suffRole:    make([]map[types.Role]int, n+1),
		suffTeam:    make([]map[string]int, n+1),
		suffCredits: make([][]float64, n+1),
		roleCount:   make(map[types.Role]int),
		teamCount:   make(map[string]int),
	}

	for i := 0; i < n; i++ {
		st.prefFP[i+1] = st.prefFP[i] + players[i].PredictedFP
	}

	st.suffRole[n] = map[types.Role]int{}
	st.suffTeam[n] = map[string]int{}
	st.suffCredits[n] = nil
	for i := n - 1; i >= 0; i-- {
		r := make(map[types.Role]int, len(st.suffRole[i+1]))
		for k, v := range st.suffRole[i+1] {
			r[k] = v
		}
		r[players[i].Role]++
		st.suffRole[i] = r

		t := make(map[string]int, len(st.suffTeam[i+1]))
		for k, v := range st.suffTeam[i+1] {
			t[k] = v
		}
		t[players[i].Team]++
		st.suffTeam[i] = t

		c := append([]float64{players[i].Credits}, st.suffCredits[i+1]...)
		sort.Float64s(c)
		if len(c) > TeamSize {
			c = c[:TeamSize]
		}
		st.suffCredits[i] = c
	}

	seen := make(map[string]bool)
	for _, p := range players {
		if !seen[p.Team] {
			seen[p.Team] = true
			st.teams = append(st.teams, p.Team)
		}
	}
	sort.Strings(st.teams)
	st.multi = len(st.teams) > 1

	return st
}

func (s *search) run(ctx context.Context) {
	s.dfs(ctx, 0)
}

func (s *search) dfs(ctx context.Context, i int) {
	s.nodes++
	if s.nodes%4096 == 0 && ctx.Err() != nil {
		return
	}

	if len(s.chosen) == TeamSize {
		s.consider()
		return
	}
	need := TeamSize - len(s.chosen)
	if len(s.players)-i < need {
		return
	}

	// Stage-1 bound: the best reachable point total from here.
	if s.best != nil {
		bound := s.fp + s.prefFP[i+need] - s.prefFP[i]
		if bound < s.best.fp-eps {
			return
		}
	}

	// Cheapest possible completion must fit the budget.
	minExtra := 0.0
	for k := 0; k < need; k++ {
		minExtra += s.suffCredits[i][k]
	}
	if s.credits+minExtra > CreditBudget+eps {
		return
	}

	// Every role minimum must stay reachable.
	for role, minCount := range roleMin {
		if s.roleCount[role]+s.suffRole[i][role] < minCount {
			return
		}
	}

	// Every team must stay reachable when the squad spans multiple teams.
	if s.multi {
		missing := 0
		for _, team := range s.teams {
			if s.teamCount[team] == 0 {
				if s.suffTeam[i][team] == 0 {
					return
				}
				missing++
			}
		}
		if missing > need {
			return
		}
	}

	p := s.players[i]

	// Branch: include, respecting the per-pick hard caps.
	if s.roleCount[p.Role] < roleMax[p.Role] &&
		s.teamCount[p.Team] < MaxPerTeam &&
		s.credits+p.Credits <= CreditBudget+eps {
		s.chosen = append(s.chosen, i)
		s.fp += p.PredictedFP
		s.credits += p.Credits
		s.roleCount[p.Role]++
		s.teamCount[p.Team]++

		s.dfs(ctx, i+1)

		s.chosen = s.chosen[:len(s.chosen)-1]
		s.fp -= p.PredictedFP
		s.credits -= p.Credits
		s.roleCount[p.Role]--
		s.teamCount[p.Team]--
	}

	// Branch: exclude.
	s.dfs(ctx, i+1)
}

// consider checks a complete eleven against the remaining constraints
// and keeps it when it beats the incumbent.
func (s *search) consider() {
	for role, minCount := range roleMin {
		if s.roleCount[role] < minCount {
			return
		}
	}
	if s.multi {
		for _, team := range s.teams {
			if s.teamCount[team] == 0 {
				return
			}
		}
	}

	ar := s.roleCount[types.RoleAllRounder]
	ids := make([]string, len(s.chosen))
	for k, idx := range s.chosen {
		ids[k] = s.players[idx].PlayerID
	}
	sort.Strings(ids)

	cand := &candidate{
		indices: append([]int{}, s.chosen...),
		fp:      s.fp,
		credits: s.credits,
		ar:      ar,
		ids:     ids,
	}
	if cand.better(s.best) {
		s.best = cand
	}
}

// result assembles the SelectionResult from the winning candidate.
func (s *search) result() model.SelectionResult {
	res := model.SelectionResult{
		Players:    make([]model.SquadPlayer, 0, TeamSize),
		RoleCounts: make(map[types.Role]int),
		TeamCounts: make(map[string]int),
	}
	for _, idx := range s.best.indices {
		p := s.players[idx]
		res.Players = append(res.Players, p)
		res.TotalPredictedPoints += p.PredictedFP
		res.TotalCredits += p.Credits
		res.RoleCounts[p.Role]++
		res.TeamCounts[p.Team]++
	}
	sort.SliceStable(res.Players, func(i, j int) bool {
		if res.Players[i].PredictedFP != res.Players[j].PredictedFP {
			return res.Players[i].PredictedFP > res.Players[j].PredictedFP
		}
		return res.Players[i].PlayerID < res.Players[j].PlayerID
	})
	return res
}
