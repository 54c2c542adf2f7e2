// Package gamedb keeps a SQLite side-index of processed heights for
// host tooling: one row per block with the kill and bounty summary.
// It is written by the host after each PerformStep and queried by
// gamed-replay; the pure core never reads it.
package gamedb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/smartmonsters/alifecore/internal/gamelog"
)

const schema = `
CREATE TABLE IF NOT EXISTS steps (
  session_id   TEXT NOT NULL,
  height       INTEGER NOT NULL,
  hash         TEXT NOT NULL,
  killed       INTEGER NOT NULL,
  bounty_count INTEGER NOT NULL,
  bounty_total INTEGER NOT NULL,
  tax_amount   INTEGER NOT NULL,
  players      INTEGER NOT NULL,
  game_fund    INTEGER NOT NULL,
  recorded_at  TEXT NOT NULL,
  PRIMARY KEY (session_id, height)
);
CREATE INDEX IF NOT EXISTS steps_height ON steps (height);
`

// Index is an open side-index. Each Index gets its own session id so
// concurrent replay runs against one database file don't collide.
type Index struct {
	db      *sql.DB
	session string
}

// Open creates or opens the index at path and prepares the schema.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("gamedb: empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("gamedb: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("gamedb: prepare schema: %w", err)
	}
	return &Index{db: db, session: uuid.NewString()}, nil
}

// Session returns this index handle's session id.
func (ix *Index) Session() string { return ix.session }

// RecordStep inserts one processed-height row.
func (ix *Index) RecordStep(rec gamelog.StepRecord) error {
	recordedAt := rec.RecordedAt
	if recordedAt == "" {
		recordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := ix.db.Exec(
		`INSERT OR REPLACE INTO steps
		 (session_id, height, hash, killed, bounty_count, bounty_total, tax_amount, players, game_fund, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ix.session, rec.Height, rec.Hash, len(rec.KilledPlayers),
		rec.BountyCount, rec.BountyTotal, rec.TaxAmount,
		rec.Players, rec.GameFund, recordedAt,
	)
	if err != nil {
		return fmt.Errorf("gamedb: record height %d: %w", rec.Height, err)
	}
	return nil
}

// StepRow is one queried row.
type StepRow struct {
	Session     string
	Height      int32
	Hash        string
	Killed      int
	BountyCount int
	BountyTotal int64
	TaxAmount   int64
	Players     int
	GameFund    int64
	RecordedAt  string
}

// SinceHeight returns all rows at or above height, ordered by height
// then session id.
func (ix *Index) SinceHeight(height int32) ([]StepRow, error) {
	rows, err := ix.db.Query(
		`SELECT session_id, height, hash, killed, bounty_count, bounty_total,
		        tax_amount, players, game_fund, recorded_at
		 FROM steps WHERE height >= ? ORDER BY height, session_id`, height)
	if err != nil {
		return nil, fmt.Errorf("gamedb: query since %d: %w", height, err)
	}
	defer rows.Close()

	var out []StepRow
	for rows.Next() {
		var r StepRow
		if err := rows.Scan(&r.Session, &r.Height, &r.Hash, &r.Killed,
			&r.BountyCount, &r.BountyTotal, &r.TaxAmount,
			&r.Players, &r.GameFund, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
