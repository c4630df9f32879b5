// Package roles resolves a player's positional role for a given date.
//
// Lookup order: season-specific table, then the global table, then a BAT
// default. The chain never fails; the source of each answer is reported so
// the default path stays observable.
package roles

import (
	"time"

	"github.com/okian/gully/internal/domain/types"
	"github.com/okian/gully/pkg/metrics"
)

// SeasonKey keys the season-specific role table.
type SeasonKey struct {
	PlayerID string
	Season   int // calendar year of the match date
}

// Resolver answers role lookups from two immutable reference tables.
type Resolver struct {
	season map[SeasonKey]types.Role
	global map[string]types.Role
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithSeasonRoles sets the season-specific role table.
func WithSeasonRoles(table map[SeasonKey]types.Role) Option {
	return func(r *Resolver) {
		for k, v := range table {
			if v.Valid() {
				r.season[k] = v
			}
		}
	}
}

// WithGlobalRoles sets the season-independent role table.
func WithGlobalRoles(table map[string]types.Role) Option {
	return func(r *Resolver) {
		for k, v := range table {
			if v.Valid() {
				r.global[k] = v
			}
		}
	}
}

// NewResolver creates a resolver over the given reference tables.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		season: make(map[SeasonKey]types.Role),
		global: make(map[string]types.Role),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the player's role at date.
func (r *Resolver) Resolve(playerID string, date time.Time) types.Role {
	role, _ := r.ResolveDetail(playerID, date)
	return role
}

// ResolveDetail returns the role plus the table it came from.
func (r *Resolver) ResolveDetail(playerID string, date time.Time) (types.Role, types.RoleSource) {
	if role, ok := r.season[SeasonKey{PlayerID: playerID, Season: date.Year()}]; ok {
		return role, types.RoleSourceSeason
	}
	if role, ok := r.global[playerID]; ok {
		return role, types.RoleSourceGlobal
	}
	metrics.RecordDefaultRoleLookup()
	return types.RoleBatter, types.RoleSourceDefault
}
