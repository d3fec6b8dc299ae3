package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
)

// Selection is a materialized match-id (and optional player-id) key set
// for one export run. The ids live in indexed TEMP tables so the event
// stream joins against them instead of a potentially huge IN list.
//
// TEMP tables are per-connection; the store pins its pool to a single
// connection, so a Selection stays valid until the store closes or a new
// selection replaces it.
type Selection struct {
	store         *Store
	CompetitionID int64
	SeasonID      int64
	MatchCount    int
	playerFilter  bool
}

// SelectLeague resolves all match ids for the (competitionID, seasonID)
// pair and materializes them. An empty result is an error: export cannot
// proceed with no matches. An empty players slice means no player filter,
// not "filter to nothing".
func (s *Store) SelectLeague(ctx context.Context, competitionID, seasonID int64, players []int64) (*Selection, error) {
	var matchIDs []int64
	err := s.db.SelectContext(ctx, &matchIDs,
		`SELECT match_id FROM matches_raw WHERE competition_id = ? AND season_id = ?`,
		competitionID, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve match ids: %w", err)
	}
	if len(matchIDs) == 0 {
		return nil, fmt.Errorf("%w: competition_id=%d season_id=%d",
			apperrors.ErrNoMatches, competitionID, seasonID)
	}

	if err := s.materializeKeys(ctx, "selected_matches", "match_id", matchIDs); err != nil {
		return nil, err
	}

	sel := &Selection{
		store:         s,
		CompetitionID: competitionID,
		SeasonID:      seasonID,
		MatchCount:    len(matchIDs),
	}

	if len(players) > 0 {
		if err := s.materializeKeys(ctx, "selected_players", "player_id", players); err != nil {
			return nil, err
		}
		sel.playerFilter = true
	}

	return sel, nil
}

// materializeKeys (re)creates an indexed TEMP key table and fills it.
func (s *Store) materializeKeys(ctx context.Context, table, column string, keys []int64) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS temp.%s`, table)); err != nil {
		return fmt.Errorf("failed to drop temp table %s: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`CREATE TEMP TABLE %s (%s INTEGER PRIMARY KEY)`, table, column)); err != nil {
		return fmt.Errorf("failed to create temp table %s: %w", table, err)
	}

	stmt, err := s.db.PreparexContext(ctx,
		fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s) VALUES (?)`, table, column))
	if err != nil {
		return fmt.Errorf("failed to prepare key insert: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key); err != nil {
			return fmt.Errorf("failed to insert key %d into %s: %w", key, table, err)
		}
	}
	return nil
}

// playerJoin is appended to the event queries when a player filter is set.
const playerJoin = ` JOIN selected_players p ON e.player_id = p.player_id`

// CountEvents returns the total number of events in the selection. The
// count feeds progress reporting only; correctness never depends on it.
func (sel *Selection) CountEvents(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM events_raw e
	JOIN selected_matches m ON e.match_id = m.match_id`
	if sel.playerFilter {
		query += playerJoin
	}

	var n int64
	if err := sel.store.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("failed to count selected events: %w", err)
	}
	return n, nil
}

// StreamEvents opens a cursor over the selected events ordered by
// (match_id, index_in_file), reproducing the original source sequence.
// The caller owns the returned rows and must close them.
func (sel *Selection) StreamEvents(ctx context.Context) (*sqlx.Rows, error) {
	query := `SELECT e.match_id, e.event_id, e.index_in_file, e.payload
	FROM events_raw e
	JOIN selected_matches m ON e.match_id = m.match_id`
	if sel.playerFilter {
		query += playerJoin
	}
	query += ` ORDER BY e.match_id, e.index_in_file`

	rows, err := sel.store.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to stream selected events: %w", err)
	}
	return rows, nil
}
