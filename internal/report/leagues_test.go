package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jittakal/matcheventstore/internal/store"
	"github.com/jittakal/matcheventstore/pkg/event"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return st
}

func seedMatch(t *testing.T, st *store.Store, matchID, competitionID, seasonID int64, matchDate, payload string) {
	t.Helper()
	ctx := context.Background()
	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	rec := event.MatchRecord{
		MatchID:       matchID,
		CompetitionID: competitionID,
		SeasonID:      seasonID,
		Payload:       json.RawMessage(payload),
		SourceFile:    fmt.Sprintf("%d/%d.json", competitionID, seasonID),
		IngestedAt:    "2026-08-29T00:00:00Z",
	}
	if matchDate != "" {
		rec.MatchDate = &matchDate
	}
	if err := st.UpsertMatch(ctx, tx, rec); err != nil {
		t.Fatalf("UpsertMatch() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func premierLeaguePayload(matchID int64) string {
	return fmt.Sprintf(`{
		"match_id": %d,
		"competition": {"competition_name": "Premier League"},
		"season": {"season_name": "2015/2016"},
		"country": {"name": "England"}
	}`, matchID)
}

func TestLeagues_Aggregation(t *testing.T) {
	st := newTestStore(t)
	seedMatch(t, st, 100, 2, 27, "2015-08-08", premierLeaguePayload(100))
	seedMatch(t, st, 101, 2, 27, "2016-05-17", premierLeaguePayload(101))
	seedMatch(t, st, 200, 11, 90, "2020-09-12", `{
		"match_id": 200,
		"competition": {"name": "La Liga"},
		"season": {"name": "2020/2021"},
		"country": {"name": "Spain"}
	}`)

	summaries, err := Leagues(context.Background(), st)
	if err != nil {
		t.Fatalf("Leagues() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len(summaries) = %d, want 2", len(summaries))
	}

	// Sorted by competition name: La Liga before Premier League.
	liga := summaries[0]
	if liga.CompetitionName != "La Liga" || liga.SeasonName != "2020/2021" {
		t.Errorf("summary[0] = (%q, %q), want (La Liga, 2020/2021)", liga.CompetitionName, liga.SeasonName)
	}
	if liga.Matches != 1 {
		t.Errorf("La Liga matches = %d, want 1", liga.Matches)
	}

	pl := summaries[1]
	if pl.CompetitionID != 2 || pl.SeasonID != 27 {
		t.Errorf("summary[1] ids = (%d, %d), want (2, 27)", pl.CompetitionID, pl.SeasonID)
	}
	if pl.Matches != 2 {
		t.Errorf("Premier League matches = %d, want 2", pl.Matches)
	}
	if pl.MinDate != "2015-08-08" || pl.MaxDate != "2016-05-17" {
		t.Errorf("date range = (%q, %q), want (2015-08-08, 2016-05-17)", pl.MinDate, pl.MaxDate)
	}
	if pl.Country != "England" {
		t.Errorf("country = %q, want England", pl.Country)
	}
}

func TestLeagues_UnreadablePayloadStillCounts(t *testing.T) {
	st := newTestStore(t)
	seedMatch(t, st, 100, 2, 27, "2015-08-08", `not json`)
	seedMatch(t, st, 101, 2, 27, "2015-09-01", premierLeaguePayload(101))

	summaries, err := Leagues(context.Background(), st)
	if err != nil {
		t.Fatalf("Leagues() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("len(summaries) = %d, want 1", len(summaries))
	}
	if summaries[0].Matches != 2 {
		t.Errorf("matches = %d, want 2", summaries[0].Matches)
	}
	if summaries[0].CompetitionName != "Premier League" {
		t.Errorf("competition name = %q, want Premier League", summaries[0].CompetitionName)
	}
}

func TestLeagues_EmptyStore(t *testing.T) {
	st := newTestStore(t)
	summaries, err := Leagues(context.Background(), st)
	if err != nil {
		t.Fatalf("Leagues() error = %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("len(summaries) = %d, want 0", len(summaries))
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, []LeagueSummary{
		{
			CompetitionID: 2, SeasonID: 27,
			CompetitionName: "Premier League", SeasonName: "2015/2016",
			Country: "England", Matches: 380,
			MinDate: "2015-08-08", MaxDate: "2016-05-17",
		},
	})
	if err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Premier League") {
		t.Errorf("output missing competition name:\n%s", out)
	}
	if !strings.Contains(out, "Total league/season pairs: 1") {
		t.Errorf("output missing pair count:\n%s", out)
	}
}
