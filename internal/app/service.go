// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	matchqueue "github.com/okian/gully/internal/adapters/mq/queue"
	workerpool "github.com/okian/gully/internal/adapters/mq/worker"
	"github.com/okian/gully/internal/adapters/repository"
	"github.com/okian/gully/internal/domain/dedupe"
	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/internal/domain/roles"
	"github.com/okian/gully/internal/domain/scoring"
	"github.com/okian/gully/internal/domain/selection"
	"github.com/okian/gully/internal/domain/types"
	"github.com/okian/gully/internal/domain/valuation"
	"github.com/okian/gully/pkg/logger"
	"github.com/okian/gully/pkg/metrics"
)

// Service implements the API dependencies for the recommender system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    matchqueue.Queue
	pool     *workerpool.Pool
	scorer   *scoring.Engine
	resolver *roles.Resolver
	valuer   *valuation.Engine
	solver   *selection.Solver

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	dbPath      string
	seasonRoles map[roles.SeasonKey]types.Role
	globalRoles map[string]types.Role

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the scoring queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the match deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDBPath selects the SQLite history database. Empty keeps the
// in-memory store.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithSeasonRoles supplies the per-season role reference table.
func WithSeasonRoles(table map[roles.SeasonKey]types.Role) Option {
	return func(s *Service) {
		s.seasonRoles = table
	}
}

// WithGlobalRoles supplies the career-wide role reference table.
func WithGlobalRoles(table map[string]types.Role) Option {
	return func(s *Service) {
		s.globalRoles = table
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10000,
		dedupeSize:  50000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting recommender service...")

	if s.dbPath != "" {
		store, err := repository.NewSQLiteStore(s.dbPath)
		if err != nil {
			return fmt.Errorf("service: open history store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite history store", logger.String("path", s.dbPath))
	} else {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory history store")
	}

	s.deduper = dedupe.NewInMemory(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = matchqueue.NewInMemoryQueue(
		matchqueue.WithCapacity(s.queueSize),
		matchqueue.WithBufferSize(s.queueSize),
	)
	s.scorer = scoring.NewEngine(scoring.WithLogger(s.logger.Named("scoring")))
	s.resolver = roles.NewResolver(
		roles.WithSeasonRoles(s.seasonRoles),
		roles.WithGlobalRoles(s.globalRoles),
	)
	s.valuer = valuation.NewEngine(s.resolver,
		valuation.WithLogger(s.logger.Named("valuation")))
	s.solver = selection.NewSolver(
		selection.WithLogger(s.logger.Named("selection")))

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.scorer, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "recommender service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping recommender service...")

	if s.pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := s.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
		}
		cancel()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "history store close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "recommender service stopped")
}

// SeenAndRecord atomically checks if a match id was seen and records it
// if not. Returns true if the match was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a match ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a parsed match for asynchronous scoring.
func (s *Service) Enqueue(ctx context.Context, m *model.Match) bool {
	if m == nil {
		return false
	}
	ok := s.queue.Enqueue(ctx, matchqueue.Job{Match: m})
	if !ok {
		s.logger.Warn(ctx, "queue rejected match",
			logger.String("matchID", m.MatchID))
	}
	return ok
}

// ScoreMatch scores a match synchronously and appends its history rows.
// The CLI path uses this; the HTTP path goes through the queue.
func (s *Service) ScoreMatch(ctx context.Context, m *model.Match) (map[string]model.PlayerMatchPoints, error) {
	points, err := s.scorer.Score(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("service: score match: %w", err)
	}

	recs := make([]model.HistoricalRecord, 0, len(points))
	for playerID, p := range points {
		recs = append(recs, model.HistoricalRecord{
			PlayerID:  playerID,
			MatchID:   m.MatchID,
			MatchDate: m.Date,
			ActualFP:  float64(p.Total),
		})
	}
	if len(recs) > 0 {
		if err := s.store.AppendBatch(ctx, recs); err != nil {
			return nil, fmt.Errorf("service: append history: %w", err)
		}
	}
	return points, nil
}

// Recommend prices the squad against history strictly before matchDate
// and solves for the best eleven.
func (s *Service) Recommend(ctx context.Context, matchDate time.Time, squad []model.SquadPlayer) (model.SelectionResult, error) {
	history, err := s.store.Before(ctx, matchDate)
	if err != nil {
		return model.SelectionResult{}, fmt.Errorf("service: load history: %w", err)
	}

	squadIDs := make([]string, len(squad))
	for i, p := range squad {
		squadIDs[i] = p.PlayerID
	}
	valuations, err := s.valuer.Value(ctx, history, matchDate, squadIDs)
	if err != nil {
		return model.SelectionResult{}, fmt.Errorf("service: value squad: %w", err)
	}

	priced := make([]model.SquadPlayer, len(squad))
	copy(priced, squad)
	for i := range priced {
		if v, ok := valuations[priced[i].PlayerID]; ok {
			priced[i].Credits = v.Credits
		}
	}

	result, err := s.solver.Solve(ctx, priced)
	if err != nil {
		return model.SelectionResult{}, fmt.Errorf("service: solve selection: %w", err)
	}
	return result, nil
}

// RecommendMatch builds the squad from a match file and recommends the
// best eleven for it. Players absent from predictions fall back to their
// actual scored points, so a call without predictions yields the
// best-in-hindsight eleven for the match.
func (s *Service) RecommendMatch(ctx context.Context, m *model.Match, predictions map[string]float64) (model.SelectionResult, error) {
	points, err := s.scorer.Score(ctx, m)
	if err != nil {
		return model.SelectionResult{}, fmt.Errorf("service: score match: %w", err)
	}

	squad := make([]model.SquadPlayer, 0, 22)
	for _, team := range m.Teams {
		for _, name := range m.Players[team] {
			id, ok := m.Registry[name]
			if !ok {
				s.logger.Warn(ctx, "squad player missing from registry",
					logger.String("matchID", m.MatchID),
					logger.String("player", name))
				continue
			}
			fp, ok := predictions[id]
			if !ok {
				fp = float64(points[id].Total)
			}
			squad = append(squad, model.SquadPlayer{
				PlayerID:    id,
				Name:        name,
				Role:        s.resolver.Resolve(id, m.Date),
				Team:        team,
				PredictedFP: fp,
			})
		}
	}

	return s.Recommend(ctx, m.Date, squad)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()

		if rows, err := s.store.RowCount(ctx); err == nil {
			stats["historyRows"] = rows
			metrics.UpdateHistoryRows(rows)
		}
		if players, err := s.store.PlayerCount(ctx); err == nil {
			stats["historyPlayers"] = players
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
	}
	return stats
}
