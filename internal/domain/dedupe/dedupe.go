// Package dedupe tracks already-processed match IDs so a replayed
// scorecard is scored at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/gully/pkg/metrics"
)

// Deduper records seen match IDs to ensure at-most-once scoring.
type Deduper interface {
	// SeenAndRecord atomically checks if matchID was seen and records it
	// if not. Returns true if matchID was already seen.
	SeenAndRecord(ctx context.Context, matchID string) bool

	// Unrecord removes a match ID from the seen set, allowing a retry.
	// Use only when a match was recorded but failed to be enqueued.
	Unrecord(ctx context.Context, matchID string)

	Size() int64
}

// inMemoryDeduper keeps seen match IDs in a map with a FIFO ring for
// bounded eviction. The map value is the ring slot holding the ID, or
// -1 in unbounded mode (maxSize <= 0, no eviction).
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemory creates a deduper with configuration options.
func NewInMemory(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, matchID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[matchID]; exists {
		metrics.RecordMatchDuplicate()
		return true
	}

	if d.maxSize <= 0 {
		d.seen[matchID] = -1
		d.size.Add(1)
		return false
	}

	// Evict whatever occupies the slot about to be reused.
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
		d.size.Add(-1)
	}
	d.ring[d.next] = matchID
	d.seen[matchID] = d.next
	d.next = (d.next + 1) % d.maxSize
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, matchID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, exists := d.seen[matchID]
	if !exists {
		return
	}
	if slot >= 0 {
		d.ring[slot] = ""
	}
	delete(d.seen, matchID)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
