// Package worker defines worker contracts for asynchronous match scoring.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/gully/internal/adapters/mq/queue"
	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/pkg/logger"
	"github.com/okian/gully/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2
	workerShutdownTimeout   = 5 * time.Second
)

// Scorer turns a parsed match into per-player fantasy points.
type Scorer interface {
	Score(ctx context.Context, m *model.Match) (map[string]model.PlayerMatchPoints, error)
}

// Appender persists the scored appearances of one match.
type Appender interface {
	AppendBatch(ctx context.Context, recs []model.HistoricalRecord) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes scoring jobs and writes history using the provided
// interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker. Jobs already dequeued are
	// processed before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing scoring jobs.
type InMemoryWorker struct {
	queue    Queue
	scorer   Scorer
	appender Appender
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer Scorer, appender Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		appender: appender,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob scores a single match and appends its history rows.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	if job.Match == nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("job carries no match")
	}

	points, err := w.scorer.Score(ctx, job.Match)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "scoring failed",
			logger.String("matchID", job.Match.MatchID),
			logger.Error(err),
		)
		return fmt.Errorf("score match %s: %w", job.Match.MatchID, err)
	}

	recs := make([]model.HistoricalRecord, 0, len(points))
	for playerID, p := range points {
		recs = append(recs, model.HistoricalRecord{
			PlayerID:  playerID,
			MatchID:   job.Match.MatchID,
			MatchDate: job.Match.Date,
			ActualFP:  float64(p.Total),
		})
	}
	if len(recs) == 0 {
		w.logger.Warn(ctx, "match produced no scored players",
			logger.String("matchID", job.Match.MatchID))
		return nil
	}

	if err := w.appender.AppendBatch(ctx, recs); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "history append failed",
			logger.String("matchID", job.Match.MatchID),
			logger.Error(err),
		)
		return fmt.Errorf("append history for match %s: %w", job.Match.MatchID, err)
	}

	w.logger.Debug(ctx, "match scored",
		logger.String("matchID", job.Match.MatchID),
		logger.Int("players", len(recs)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 defaults to a
// multiple of the CPU count.
func NewPool(workerCount int, q Queue, scorer Scorer, appender Appender) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			scorer,
			appender,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown gracefully shuts down the entire worker pool. The queue is
// closed first so workers drain remaining jobs.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(ctx, "worker did not stop in time",
				logger.String("worker", w.name))
		case <-ctx.Done():
			return fmt.Errorf("pool shutdown: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
