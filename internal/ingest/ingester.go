// Package ingest loads nested match and event source files into the raw store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/internal/observability"
	"github.com/jittakal/matcheventstore/internal/store"
	"github.com/jittakal/matcheventstore/internal/validator"
	"github.com/jittakal/matcheventstore/pkg/event"
)

// Ingester reads match source files laid out as
// {matchesDir}/{competition_id}/{season_id}.json plus companion
// {eventsDir}/{match_id}.json files and upserts them into the store.
// One transaction per match source file: a crash mid-run leaves completed
// files durably ingested and the current file rolled back.
type Ingester struct {
	store      *store.Store
	matchesDir string
	eventsDir  string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Summary reports what one ingestion run processed.
type Summary struct {
	MatchFiles int
	EventFiles int
	Matches    int
	Events     int
}

// New creates an ingester over the given source directories.
func New(s *store.Store, matchesDir, eventsDir string, logger *slog.Logger, metrics *observability.Metrics) *Ingester {
	return &Ingester{
		store:      s,
		matchesDir: matchesDir,
		eventsDir:  eventsDir,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run ingests every match source file in sorted order.
func (i *Ingester) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	i.logger.Info("resolving source directories",
		"matches_dir", i.matchesDir,
		"events_dir", i.eventsDir,
	)
	if _, err := os.Stat(i.matchesDir); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSourceMissing, i.matchesDir)
	}
	if _, err := os.Stat(i.eventsDir); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSourceMissing, i.eventsDir)
	}

	matchFiles, err := filepath.Glob(filepath.Join(i.matchesDir, "*", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list match files: %w", err)
	}
	sort.Strings(matchFiles)
	i.logger.Info("found match files", "count", len(matchFiles))

	ingestedAt := time.Now().UTC().Format(time.RFC3339)
	summary := &Summary{}

	for _, path := range matchFiles {
		competitionID, seasonID, err := selectionKeyFromPath(path)
		if err != nil {
			return nil, &apperrors.IngestError{SourceFile: path, Err: err}
		}

		matches, eventFiles, events, err := i.ingestFile(ctx, path, competitionID, seasonID, ingestedAt)
		if err != nil {
			return nil, &apperrors.IngestError{SourceFile: path, Err: err}
		}

		summary.MatchFiles++
		summary.EventFiles += eventFiles
		summary.Matches += matches
		summary.Events += events

		if i.metrics != nil {
			i.metrics.MatchFilesIngested.Inc()
		}
		i.logger.Info("ingested match file",
			"source_file", path,
			"competition_id", competitionID,
			"season_id", seasonID,
			"matches", matches,
			"event_files", eventFiles,
		)
	}

	if i.metrics != nil {
		i.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}
	i.logger.Info("ingestion complete",
		"match_files", summary.MatchFiles,
		"event_files", summary.EventFiles,
		"matches", summary.Matches,
		"events", summary.Events,
	)
	return summary, nil
}

// ingestFile upserts all matches of one source file and their companion
// event files inside a single transaction.
func (i *Ingester) ingestFile(ctx context.Context, path string, competitionID, seasonID int64, ingestedAt string) (matches, eventFiles, events int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read match file: %w", err)
	}

	var rawMatches []json.RawMessage
	if err := json.Unmarshal(raw, &rawMatches); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}

	tx, err := i.store.Begin(ctx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	matchIDs := make([]int64, 0, len(rawMatches))
	for _, rawMatch := range rawMatches {
		var m event.MatchPayload
		if err := json.Unmarshal(rawMatch, &m); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
		}
		if err := validator.ValidateMatch(path, &m); err != nil {
			return 0, 0, 0, err
		}

		rec := event.MatchRecord{
			MatchID:       m.MatchID,
			CompetitionID: competitionID,
			SeasonID:      seasonID,
			MatchDate:     m.MatchDate,
			Payload:       rawMatch,
			SourceFile:    path,
			IngestedAt:    ingestedAt,
		}
		if m.HomeTeam != nil {
			rec.HomeTeamID = m.HomeTeam.HomeTeamID
		}
		if m.AwayTeam != nil {
			rec.AwayTeamID = m.AwayTeam.AwayTeamID
		}

		if err := i.store.UpsertMatch(ctx, tx, rec); err != nil {
			return 0, 0, 0, err
		}
		matches++
		matchIDs = append(matchIDs, m.MatchID)
		if i.metrics != nil {
			i.metrics.MatchesUpserted.Inc()
		}
	}

	for _, matchID := range matchIDs {
		eventPath := filepath.Join(i.eventsDir, fmt.Sprintf("%d.json", matchID))
		recs, err := i.loadEvents(eventPath, matchID, ingestedAt)
		if os.IsNotExist(err) {
			// A match with no event file stays valid with zero events.
			if i.metrics != nil {
				i.metrics.EventFilesMissing.Inc()
			}
			continue
		}
		if err != nil {
			return 0, 0, 0, err
		}

		if err := i.store.UpsertEvents(ctx, tx, recs); err != nil {
			return 0, 0, 0, err
		}
		eventFiles++
		events += len(recs)
		if i.metrics != nil {
			i.metrics.EventsUpserted.Add(float64(len(recs)))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to commit source file: %w", err)
	}
	return matches, eventFiles, events, nil
}

// loadEvents reads one companion event file into store records. The
// record's index_in_file is its position in the source array, which makes
// the stored ordering dense, zero-based and strictly increasing.
func (i *Ingester) loadEvents(path string, matchID int64, ingestedAt string) ([]event.EventRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rawEvents []json.RawMessage
	if err := json.Unmarshal(raw, &rawEvents); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidPayload, path, err)
	}

	recs := make([]event.EventRecord, 0, len(rawEvents))
	for idx, rawEvent := range rawEvents {
		var ev event.EventPayload
		if err := json.Unmarshal(rawEvent, &ev); err != nil {
			// Field shapes are best-effort: the payload column keeps the
			// raw JSON either way, and only the id is needed for keying.
			// A record that cannot even yield an id is invalid.
			ev = event.EventPayload{}
			var key struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(rawEvent, &key); err != nil {
				return nil, fmt.Errorf("%w: %s[%d]: %v", apperrors.ErrInvalidPayload, path, idx, err)
			}
			ev.ID = key.ID
			i.logger.Warn("storing event with unreadable header fields",
				"source_file", path,
				"event_id", key.ID,
				"index_in_file", idx,
			)
		}
		if err := validator.ValidateEvent(path, &ev); err != nil {
			return nil, err
		}

		rec := event.EventRecord{
			MatchID:     matchID,
			EventID:     ev.ID,
			IndexInFile: int64(idx),
			Period:      ev.Period,
			Timestamp:   ev.Timestamp,
			Minute:      ev.Minute,
			Second:      ev.Second,
			Possession:  ev.Possession,
			Payload:     rawEvent,
			SourceFile:  path,
			IngestedAt:  ingestedAt,
		}
		if ev.Type != nil {
			rec.TypeName = ev.Type.Name
		}
		if ev.Team != nil {
			rec.TeamID = ev.Team.ID
		}
		if ev.Player != nil {
			rec.PlayerID = ev.Player.ID
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// selectionKeyFromPath derives (competition_id, season_id) from a match
// file path of the form .../{competition_id}/{season_id}.json.
func selectionKeyFromPath(path string) (int64, int64, error) {
	competitionID, err := strconv.ParseInt(filepath.Base(filepath.Dir(path)), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric competition directory: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	seasonID, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric season file name: %w", err)
	}
	return competitionID, seasonID, nil
}
