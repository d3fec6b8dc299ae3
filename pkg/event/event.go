package event

import "encoding/json"

// Event type tags carried by the source payloads. The flattener dispatches
// on these; every other type flattens to common columns only.
const (
	TypePass          = "Pass"
	TypeShot          = "Shot"
	TypeCarry         = "Carry"
	TypeDuel          = "Duel"
	TypeFoulCommitted = "Foul Committed"
	TypeFoulWon       = "Foul Won"
)

// Location is an (x, y) coordinate pair. Source payloads occasionally
// carry a non-array or non-numeric value here; those decode to nil
// coordinates instead of failing the whole record.
type Location []float64

// UnmarshalJSON falls back to nil on any shape mismatch. Only the
// surrounding document being unparseable fails a record.
func (l *Location) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		*l = nil
		return nil
	}
	*l = coords
	return nil
}

// TagRef is the recurring {"id": ..., "name": ...} object used throughout
// the source payloads for types, teams, players, outcomes and so on.
// Both fields are optional; absent sub-objects decode to a nil *TagRef.
type TagRef struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

// EventPayload is the typed view of one nested event record. Only the
// fields the store and the flattener read are modeled; the full payload is
// kept verbatim alongside it. Per-type sub-structures are nil when the
// event does not carry them.
type EventPayload struct {
	ID          string  `json:"id"`
	Period      *int64  `json:"period"`
	Timestamp   *string `json:"timestamp"`
	Minute      *int64  `json:"minute"`
	Second      *int64  `json:"second"`
	Type        *TagRef `json:"type"`
	Possession  *int64  `json:"possession"`
	PlayPattern *TagRef `json:"play_pattern"`
	Team        *TagRef `json:"team"`
	Player      *TagRef `json:"player"`

	Location Location `json:"location"`

	Pass  *PassDetail  `json:"pass"`
	Shot  *ShotDetail  `json:"shot"`
	Carry *CarryDetail `json:"carry"`
	Duel  *DuelDetail  `json:"duel"`
}

// PassDetail is the pass-specific sub-structure.
type PassDetail struct {
	EndLocation Location `json:"end_location"`
	Length      *float64 `json:"length"`
	Height      *TagRef  `json:"height"`
	Outcome     *TagRef  `json:"outcome"`
	Cross       *bool    `json:"cross"`
	Switch      *bool    `json:"switch"`
}

// ShotDetail is the shot-specific sub-structure. XG is a pre-computed
// model output carried through unmodified.
type ShotDetail struct {
	EndLocation Location `json:"end_location"`
	Outcome     *TagRef  `json:"outcome"`
	BodyPart    *TagRef  `json:"body_part"`
	Type        *TagRef  `json:"type"`
	XG          *float64 `json:"statsbomb_xg"`
}

// CarryDetail is the carry-specific sub-structure.
type CarryDetail struct {
	EndLocation Location `json:"end_location"`
}

// DuelDetail is the duel-specific sub-structure.
type DuelDetail struct {
	Type *TagRef `json:"type"`
}

// MatchPayload is the typed view of one nested match record. As with
// events, only the denormalized header fields are modeled.
type MatchPayload struct {
	MatchID   int64   `json:"match_id"`
	MatchDate *string `json:"match_date"`

	HomeTeam *struct {
		HomeTeamID *int64 `json:"home_team_id"`
	} `json:"home_team"`
	AwayTeam *struct {
		AwayTeamID *int64 `json:"away_team_id"`
	} `json:"away_team"`

	Competition *struct {
		CompetitionName *string `json:"competition_name"`
		Name            *string `json:"name"`
	} `json:"competition"`
	Season *struct {
		SeasonName *string `json:"season_name"`
		Name       *string `json:"name"`
	} `json:"season"`
	Country *struct {
		Name *string `json:"name"`
	} `json:"country"`
}

// MatchRecord is one row of the matches_raw table.
type MatchRecord struct {
	MatchID       int64           `db:"match_id"`
	CompetitionID int64           `db:"competition_id"`
	SeasonID      int64           `db:"season_id"`
	MatchDate     *string         `db:"match_date"`
	HomeTeamID    *int64          `db:"home_team_id"`
	AwayTeamID    *int64          `db:"away_team_id"`
	Payload       json.RawMessage `db:"payload"`
	SourceFile    string          `db:"source_file"`
	IngestedAt    string          `db:"ingested_at"`
}

// EventRecord is one row of the events_raw table. IndexInFile is the
// event's zero-based position in its source sequence and the authoritative
// intra-match ordering key.
type EventRecord struct {
	MatchID     int64           `db:"match_id"`
	EventID     string          `db:"event_id"`
	IndexInFile int64           `db:"index_in_file"`
	Period      *int64          `db:"period"`
	Timestamp   *string         `db:"timestamp"`
	Minute      *int64          `db:"minute"`
	Second      *int64          `db:"second"`
	TypeName    *string         `db:"type_name"`
	Possession  *int64          `db:"possession"`
	TeamID      *int64          `db:"team_id"`
	PlayerID    *int64          `db:"player_id"`
	Payload     json.RawMessage `db:"payload"`
	SourceFile  string          `db:"source_file"`
	IngestedAt  string          `db:"ingested_at"`
}

// StoredEvent is the projection streamed out of the store during export.
type StoredEvent struct {
	MatchID     int64           `db:"match_id"`
	EventID     string          `db:"event_id"`
	IndexInFile int64           `db:"index_in_file"`
	Payload     json.RawMessage `db:"payload"`
}

// FileFormat represents an export output format.
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatAvro    FileFormat = "avro"
)

// Columnar reports whether the format writes independently complete,
// sequentially numbered part files rather than one growing file.
func (f FileFormat) Columnar() bool {
	return f == FormatParquet || f == FormatAvro
}
