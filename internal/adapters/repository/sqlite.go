package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
    player_id  TEXT     NOT NULL,
    match_id   TEXT     NOT NULL,
    match_date DATETIME NOT NULL,
    actual_fp  REAL     NOT NULL DEFAULT 0,
    PRIMARY KEY (player_id, match_id)
);

CREATE INDEX IF NOT EXISTS idx_history_date   ON history(match_date);
CREATE INDEX IF NOT EXISTS idx_history_player ON history(player_id);
`

// SQLiteStore persists history in SQLite (pure Go driver, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and applies the
// schema. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec model.HistoricalRecord) error {
	return s.AppendBatch(ctx, []model.HistoricalRecord{rec})
}

func (s *SQLiteStore) AppendBatch(ctx context.Context, recs []model.HistoricalRecord) error {
	if len(recs) == 0 {
		return nil
	}
	for _, rec := range recs {
		if err := validate(rec); err != nil {
			return fmt.Errorf("repository: append %s/%s: %w", rec.PlayerID, rec.MatchID, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (player_id, match_id, match_date, actual_fp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id, match_id) DO UPDATE SET
			match_date = excluded.match_date,
			actual_fp  = excluded.actual_fp`)
	if err != nil {
		return fmt.Errorf("repository: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.PlayerID, rec.MatchID, rec.MatchDate.UTC(), rec.ActualFP); err != nil {
			return fmt.Errorf("repository: upsert %s/%s: %w", rec.PlayerID, rec.MatchID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository: commit: %w", err)
	}
	metrics.RecordHistoryAppend(len(recs))

	if rows, err := s.RowCount(ctx); err == nil {
		metrics.UpdateHistoryRows(rows)
	}
	return nil
}

func (s *SQLiteStore) Before(ctx context.Context, cutoff time.Time) ([]model.HistoricalRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds())) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, match_id, match_date, actual_fp
		FROM history
		WHERE match_date < ?
		ORDER BY match_date ASC, match_id ASC, player_id ASC`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("repository: query before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var out []model.HistoricalRecord
	for rows.Next() {
		var rec model.HistoricalRecord
		if err := rows.Scan(&rec.PlayerID, &rec.MatchID, &rec.MatchDate, &rec.ActualFP); err != nil {
			return nil, fmt.Errorf("repository: scan history row: %w", err)
		}
		rec.MatchDate = rec.MatchDate.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate history rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) PlayerCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT player_id) FROM history`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository: count players: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) RowCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository: count rows: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
