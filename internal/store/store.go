// Package store implements the SQLite raw store for match and event records.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jittakal/matcheventstore/pkg/event"
)

// schemaStatements create both raw tables and their supporting indexes.
// All statements are idempotent and safe to run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS matches_raw (
	  match_id       INTEGER PRIMARY KEY,
	  competition_id INTEGER,
	  season_id      INTEGER,
	  match_date     TEXT,
	  home_team_id   INTEGER,
	  away_team_id   INTEGER,
	  payload        TEXT NOT NULL,
	  source_file    TEXT,
	  ingested_at    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS events_raw (
	  match_id       INTEGER NOT NULL,
	  event_id       TEXT NOT NULL,
	  index_in_file  INTEGER,
	  period         INTEGER,
	  timestamp      TEXT,
	  minute         INTEGER,
	  second         INTEGER,
	  type_name      TEXT,
	  possession     INTEGER,
	  team_id        INTEGER,
	  player_id      INTEGER,
	  payload        TEXT NOT NULL,
	  source_file    TEXT,
	  ingested_at    TEXT,
	  PRIMARY KEY (match_id, event_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_match_id ON events_raw(match_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_player_id ON events_raw(player_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_type_name ON events_raw(type_name)`,
}

const upsertMatchSQL = `
INSERT INTO matches_raw
  (match_id, competition_id, season_id, match_date, home_team_id, away_team_id, payload, source_file, ingested_at)
VALUES
  (:match_id, :competition_id, :season_id, :match_date, :home_team_id, :away_team_id, :payload, :source_file, :ingested_at)
ON CONFLICT(match_id) DO UPDATE SET
  competition_id = excluded.competition_id,
  season_id      = excluded.season_id,
  match_date     = excluded.match_date,
  home_team_id   = excluded.home_team_id,
  away_team_id   = excluded.away_team_id,
  payload        = excluded.payload,
  source_file    = excluded.source_file,
  ingested_at    = excluded.ingested_at`

const upsertEventSQL = `
INSERT INTO events_raw
  (match_id, event_id, index_in_file, period, timestamp, minute, second,
   type_name, possession, team_id, player_id, payload, source_file, ingested_at)
VALUES
  (:match_id, :event_id, :index_in_file, :period, :timestamp, :minute, :second,
   :type_name, :possession, :team_id, :player_id, :payload, :source_file, :ingested_at)
ON CONFLICT(match_id, event_id) DO UPDATE SET
  index_in_file = excluded.index_in_file,
  period        = excluded.period,
  timestamp     = excluded.timestamp,
  minute        = excluded.minute,
  second        = excluded.second,
  type_name     = excluded.type_name,
  possession    = excluded.possession,
  team_id       = excluded.team_id,
  player_id     = excluded.player_id,
  payload       = excluded.payload,
  source_file   = excluded.source_file,
  ingested_at   = excluded.ingested_at`

// Store wraps the SQLite database holding the raw tables. Replacement on
// conflict is whole-row, so repeated ingestion of the same source is
// idempotent and convergent.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (creating if absent) the SQLite store at path.
// The connection pool is pinned to a single connection: ingestion is
// single-writer, and TEMP tables used for selection are per-connection.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates both tables and supporting indexes if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Begin starts a transaction. Ingestion commits one transaction per match
// source file.
func (s *Store) Begin(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, nil)
}

// UpsertMatch inserts or wholly replaces one match record within tx.
func (s *Store) UpsertMatch(ctx context.Context, tx *sqlx.Tx, rec event.MatchRecord) error {
	if _, err := tx.NamedExecContext(ctx, upsertMatchSQL, rec); err != nil {
		return fmt.Errorf("failed to upsert match %d: %w", rec.MatchID, err)
	}
	return nil
}

// UpsertEvents inserts or wholly replaces the given event records within tx.
func (s *Store) UpsertEvents(ctx context.Context, tx *sqlx.Tx, recs []event.EventRecord) error {
	for i := range recs {
		if _, err := tx.NamedExecContext(ctx, upsertEventSQL, recs[i]); err != nil {
			return fmt.Errorf("failed to upsert event %s of match %d: %w",
				recs[i].EventID, recs[i].MatchID, err)
		}
	}
	return nil
}

// MatchCount returns the number of stored match records.
func (s *Store) MatchCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM matches_raw`); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}

// EventCount returns the number of stored event records.
func (s *Store) EventCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM events_raw`); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// MatchHeader is the minimal match projection used by league reporting.
type MatchHeader struct {
	CompetitionID int64   `db:"competition_id"`
	SeasonID      int64   `db:"season_id"`
	MatchDate     *string `db:"match_date"`
	Payload       []byte  `db:"payload"`
}

// MatchHeaders streams the header projection of every stored match.
// The caller owns the returned rows and must close them.
func (s *Store) MatchHeaders(ctx context.Context) (*sqlx.Rows, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT competition_id, season_id, match_date, payload FROM matches_raw`)
	if err != nil {
		return nil, fmt.Errorf("failed to query match headers: %w", err)
	}
	return rows, nil
}
