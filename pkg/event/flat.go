package event

// FlatColumns is the fixed output column order of the flat event schema.
// Every exported row has every column; type-irrelevant columns are null.
var FlatColumns = []string{
	// ids
	"match_id", "event_id", "index_in_file",
	// time
	"period", "timestamp", "minute", "second",
	// context
	"event_type", "possession", "play_pattern",
	// entities
	"team_id", "player_id",
	// locations
	"x", "y", "end_x", "end_y",
	// pass
	"pass_length", "pass_height", "pass_outcome", "pass_cross", "pass_switch",
	// shot
	"shot_outcome", "shot_body_part", "shot_type", "shot_xg",
	// carry
	"carry_length",
	// duel / foul
	"duel_type", "foul_committed", "foul_won",
}

// FlatEvent is one flattened, event-type-agnostic output row. Pointer
// fields represent nullable columns.
type FlatEvent struct {
	MatchID     int64
	EventID     string
	IndexInFile int64

	Period    *int64
	Timestamp *string
	Minute    *int64
	Second    *int64

	EventType   *string
	Possession  *int64
	PlayPattern *string

	TeamID   *int64
	PlayerID *int64

	X    *float64
	Y    *float64
	EndX *float64
	EndY *float64

	PassLength  *float64
	PassHeight  *string
	PassOutcome *string
	PassCross   *bool
	PassSwitch  *bool

	ShotOutcome  *string
	ShotBodyPart *string
	ShotType     *string
	ShotXG       *float64

	CarryLength *float64

	DuelType      *string
	FoulCommitted *bool
	FoulWon       *bool
}
