package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/internal/store"
)

const matchFileJSON = `[
	{
		"match_id": 100,
		"match_date": "2020-07-01",
		"home_team": {"home_team_id": 217, "home_team_name": "Barcelona"},
		"away_team": {"away_team_id": 218, "away_team_name": "Espanyol"}
	},
	{
		"match_id": 101,
		"match_date": "2020-07-08"
	}
]`

const eventFileJSON = `[
	{"id": "e0", "period": 1, "minute": 0, "second": 0,
	 "type": {"id": 30, "name": "Pass"}, "possession": 1,
	 "team": {"id": 217}, "player": {"id": 5503}},
	{"id": "e1", "period": 1, "minute": 0, "second": 4,
	 "type": {"id": 16, "name": "Shot"}, "possession": 1,
	 "team": {"id": 217}, "player": {"id": 5503}},
	{"id": "e2", "period": 1, "minute": 1, "second": 10,
	 "type": {"id": 43, "name": "Carry"}, "possession": 2,
	 "team": {"id": 218}}
]`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := store.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return s
}

// writeSourceTree lays out matches/{comp}/{season}.json and events/{match}.json.
func writeSourceTree(t *testing.T, matchJSON string, events map[string]string) (string, string) {
	t.Helper()
	root := t.TempDir()
	matchesDir := filepath.Join(root, "matches")
	eventsDir := filepath.Join(root, "events")

	if err := os.MkdirAll(filepath.Join(matchesDir, "2"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(eventsDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(matchesDir, "2", "2020.json"), []byte(matchJSON), 0644); err != nil {
		t.Fatalf("write match file: %v", err)
	}
	for name, content := range events {
		if err := os.WriteFile(filepath.Join(eventsDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write event file: %v", err)
		}
	}
	return matchesDir, eventsDir
}

func newTestIngester(t *testing.T, s *store.Store, matchesDir, eventsDir string) *Ingester {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(s, matchesDir, eventsDir, logger, nil)
}

func TestRunIngestsMatchesAndEvents(t *testing.T) {
	s := newTestStore(t)
	matchesDir, eventsDir := writeSourceTree(t, matchFileJSON, map[string]string{
		"100.json": eventFileJSON,
	})

	summary, err := newTestIngester(t, s, matchesDir, eventsDir).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.MatchFiles != 1 {
		t.Errorf("MatchFiles = %d, want 1", summary.MatchFiles)
	}
	if summary.Matches != 2 {
		t.Errorf("Matches = %d, want 2", summary.Matches)
	}
	// Match 101 has no event file: skipped, not an error.
	if summary.EventFiles != 1 {
		t.Errorf("EventFiles = %d, want 1", summary.EventFiles)
	}
	if summary.Events != 3 {
		t.Errorf("Events = %d, want 3", summary.Events)
	}

	matches, err := s.MatchCount(context.Background())
	if err != nil {
		t.Fatalf("MatchCount() error = %v", err)
	}
	if matches != 2 {
		t.Errorf("stored matches = %d, want 2", matches)
	}
	events, err := s.EventCount(context.Background())
	if err != nil {
		t.Fatalf("EventCount() error = %v", err)
	}
	if events != 3 {
		t.Errorf("stored events = %d, want 3", events)
	}
}

func TestRunIdempotent(t *testing.T) {
	s := newTestStore(t)
	matchesDir, eventsDir := writeSourceTree(t, matchFileJSON, map[string]string{
		"100.json": eventFileJSON,
	})
	ing := newTestIngester(t, s, matchesDir, eventsDir)

	for run := 0; run < 2; run++ {
		if _, err := ing.Run(context.Background()); err != nil {
			t.Fatalf("Run() #%d error = %v", run+1, err)
		}
	}

	matches, _ := s.MatchCount(context.Background())
	events, _ := s.EventCount(context.Background())
	if matches != 2 || events != 3 {
		t.Errorf("after double ingest: matches=%d events=%d, want 2 and 3", matches, events)
	}
}

func TestRunToleratesNonConformingEventFields(t *testing.T) {
	s := newTestStore(t)
	// Field presence is best-effort: a string location and a string
	// period must not abort the run; the raw payload is stored either way.
	matchesDir, eventsDir := writeSourceTree(t, matchFileJSON, map[string]string{
		"100.json": `[
			{"id": "e0", "type": {"id": 30, "name": "Pass"}, "location": "center circle"},
			{"id": "e1", "period": "first", "type": {"id": 16, "name": "Shot"}}
		]`,
	})

	summary, err := newTestIngester(t, s, matchesDir, eventsDir).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Events != 2 {
		t.Errorf("summary.Events = %d, want 2", summary.Events)
	}

	n, err := s.EventCount(context.Background())
	if err != nil {
		t.Fatalf("EventCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("stored events = %d, want 2", n)
	}
}

func TestRunMissingMatchesDir(t *testing.T) {
	s := newTestStore(t)
	root := t.TempDir()

	_, err := newTestIngester(t, s,
		filepath.Join(root, "absent"), filepath.Join(root, "also-absent")).Run(context.Background())
	if !errors.Is(err, apperrors.ErrSourceMissing) {
		t.Errorf("Run() error = %v, want ErrSourceMissing", err)
	}
}

func TestRunMalformedMatchFileFails(t *testing.T) {
	s := newTestStore(t)
	matchesDir, eventsDir := writeSourceTree(t, `{"not":"an array"}`, nil)

	_, err := newTestIngester(t, s, matchesDir, eventsDir).Run(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed match file")
	}
	var ingErr *apperrors.IngestError
	if !errors.As(err, &ingErr) {
		t.Errorf("error = %T, want *IngestError", err)
	}

	// Nothing committed for the failed file.
	matches, _ := s.MatchCount(context.Background())
	if matches != 0 {
		t.Errorf("stored matches = %d, want 0 after rollback", matches)
	}
}

func TestSelectionKeyFromPath(t *testing.T) {
	tests := []struct {
		path     string
		wantComp int64
		wantSeas int64
		wantErr  bool
	}{
		{filepath.Join("data", "matches", "2", "2020.json"), 2, 2020, false},
		{filepath.Join("data", "matches", "11", "281.json"), 11, 281, false},
		{filepath.Join("data", "matches", "misc", "2020.json"), 0, 0, true},
		{filepath.Join("data", "matches", "2", "latest.json"), 0, 0, true},
	}

	for _, tt := range tests {
		comp, seas, err := selectionKeyFromPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("selectionKeyFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if comp != tt.wantComp || seas != tt.wantSeas {
			t.Errorf("selectionKeyFromPath(%q) = (%d,%d), want (%d,%d)",
				tt.path, comp, seas, tt.wantComp, tt.wantSeas)
		}
	}
}
