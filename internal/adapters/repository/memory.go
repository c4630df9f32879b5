package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/pkg/metrics"
)

type rowKey struct {
	playerID string
	matchID  string
}

// MemoryStore keeps history in process memory. Used by the CLI and in
// tests; the server runs on the SQLite store.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[rowKey]model.HistoricalRecord
	closed bool
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[rowKey]model.HistoricalRecord)}
}

func validate(rec model.HistoricalRecord) error {
	if rec.PlayerID == "" {
		return ErrEmptyPlayerID
	}
	if rec.MatchID == "" {
		return ErrEmptyMatchID
	}
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, rec model.HistoricalRecord) error {
	return s.AppendBatch(ctx, []model.HistoricalRecord{rec})
}

func (s *MemoryStore) AppendBatch(ctx context.Context, recs []model.HistoricalRecord) error {
	for _, rec := range recs {
		if err := validate(rec); err != nil {
			return fmt.Errorf("repository: append %s/%s: %w", rec.PlayerID, rec.MatchID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, rec := range recs {
		s.rows[rowKey{rec.PlayerID, rec.MatchID}] = rec
	}
	metrics.RecordHistoryAppend(len(recs))
	metrics.UpdateHistoryRows(len(s.rows))
	return nil
}

func (s *MemoryStore) Before(ctx context.Context, cutoff time.Time) ([]model.HistoricalRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds())) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]model.HistoricalRecord, 0, len(s.rows))
	for _, rec := range s.rows {
		if rec.MatchDate.Before(cutoff) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].MatchDate.Before(out[j].MatchDate)
		}
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (s *MemoryStore) PlayerCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	players := make(map[string]struct{}, len(s.rows))
	for key := range s.rows {
		players[key.playerID] = struct{}{}
	}
	return len(players), nil
}

func (s *MemoryStore) RowCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.rows), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
