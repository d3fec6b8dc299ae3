// Package report builds summaries over the stored match inventory.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/jittakal/matcheventstore/internal/store"
	"github.com/jittakal/matcheventstore/pkg/event"
)

// LeagueSummary aggregates the stored matches of one
// (competition_id, season_id) pair.
type LeagueSummary struct {
	CompetitionID   int64
	SeasonID        int64
	CompetitionName string
	SeasonName      string
	Country         string
	Matches         int
	MinDate         string
	MaxDate         string
}

// Leagues aggregates every stored match into per-league summaries,
// sorted by competition name, season name, then ids. Names come from
// the first match payload that carries them; matches with unreadable
// payloads still count toward the totals.
func Leagues(ctx context.Context, st *store.Store) ([]LeagueSummary, error) {
	rows, err := st.MatchHeaders(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type key struct {
		competitionID int64
		seasonID      int64
	}
	agg := make(map[key]*LeagueSummary)

	for rows.Next() {
		var header store.MatchHeader
		if err := rows.StructScan(&header); err != nil {
			return nil, fmt.Errorf("failed to scan match header: %w", err)
		}

		k := key{header.CompetitionID, header.SeasonID}
		summary, ok := agg[k]
		if !ok {
			summary = &LeagueSummary{
				CompetitionID: header.CompetitionID,
				SeasonID:      header.SeasonID,
			}
			agg[k] = summary
		}
		summary.Matches++

		if header.MatchDate != nil && *header.MatchDate != "" {
			date := *header.MatchDate
			if summary.MinDate == "" || date < summary.MinDate {
				summary.MinDate = date
			}
			if summary.MaxDate == "" || date > summary.MaxDate {
				summary.MaxDate = date
			}
		}

		if summary.CompetitionName == "" || summary.SeasonName == "" || summary.Country == "" {
			fillNames(summary, header.Payload)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read match headers: %w", err)
	}

	summaries := make([]LeagueSummary, 0, len(agg))
	for _, summary := range agg {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.CompetitionName != b.CompetitionName {
			return a.CompetitionName < b.CompetitionName
		}
		if a.SeasonName != b.SeasonName {
			return a.SeasonName < b.SeasonName
		}
		if a.CompetitionID != b.CompetitionID {
			return a.CompetitionID < b.CompetitionID
		}
		return a.SeasonID < b.SeasonID
	})
	return summaries, nil
}

// fillNames extracts missing display names from a match payload.
// Unreadable payloads are skipped silently.
func fillNames(summary *LeagueSummary, payload []byte) {
	var match event.MatchPayload
	if err := json.Unmarshal(payload, &match); err != nil {
		return
	}
	if summary.CompetitionName == "" && match.Competition != nil {
		summary.CompetitionName = firstNonEmpty(match.Competition.CompetitionName, match.Competition.Name)
	}
	if summary.SeasonName == "" && match.Season != nil {
		summary.SeasonName = firstNonEmpty(match.Season.SeasonName, match.Season.Name)
	}
	if summary.Country == "" && match.Country != nil && match.Country.Name != nil {
		summary.Country = *match.Country.Name
	}
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// Print renders the summaries as a tab-separated table followed by the
// pair count.
func Print(w io.Writer, summaries []LeagueSummary) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "competition_id\tseason_id\tcompetition_name\tseason_name\tcountry\tmatches\tmin_date\tmax_date")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			s.CompetitionID, s.SeasonID, s.CompetitionName, s.SeasonName,
			s.Country, s.Matches, s.MinDate, s.MaxDate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal league/season pairs: %d\n", len(summaries))
	return err
}
