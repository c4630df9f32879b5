// Package repository defines the fantasy-point history store interface
// and its implementations.
package repository

import (
	"context"
	"time"

	"github.com/okian/gully/internal/domain/model"
)

// Store provides read/write access to per-player fantasy point history.
// Rows are keyed by (player_id, match_id); appending the same pair again
// overwrites the earlier row.
type Store interface {
	// Append stores a single scored appearance.
	Append(ctx context.Context, rec model.HistoricalRecord) error

	// AppendBatch stores all appearances of one scored match atomically.
	AppendBatch(ctx context.Context, recs []model.HistoricalRecord) error

	// Before returns every appearance dated strictly before cutoff,
	// ordered by match date ascending with match ID as tie-break.
	Before(ctx context.Context, cutoff time.Time) ([]model.HistoricalRecord, error)

	// PlayerCount returns the number of distinct players with history.
	PlayerCount(ctx context.Context) (int, error)

	// RowCount returns the total number of stored appearances.
	RowCount(ctx context.Context) (int, error)

	Close() error
}
