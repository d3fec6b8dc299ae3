package flatten

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/jittakal/matcheventstore/pkg/event"
)

func decode(t *testing.T, payload string) *event.EventPayload {
	t.Helper()
	var ev event.EventPayload
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return &ev
}

func TestFlattenMalformedLocations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"string location", `{
			"id": "a1",
			"type": {"id": 30, "name": "Pass"},
			"location": "center circle",
			"pass": {"end_location": {"x": 52.0}}
		}`},
		{"numeric location", `{
			"id": "a1",
			"type": {"id": 30, "name": "Pass"},
			"location": 61.2,
			"pass": {"end_location": ["52", "35"]}
		}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := decode(t, tt.payload)

			row := Flatten(ev, 100, 0)

			if row.X != nil || row.Y != nil {
				t.Errorf("coordinates = (%v, %v), want nils", row.X, row.Y)
			}
			if row.EndX != nil || row.EndY != nil {
				t.Errorf("end coordinates = (%v, %v), want nils", row.EndX, row.EndY)
			}
			if row.EventType == nil || *row.EventType != "Pass" {
				t.Errorf("EventType = %v, want Pass", row.EventType)
			}
		})
	}
}

func TestFlattenCommonFields(t *testing.T) {
	ev := decode(t, `{
		"id": "a1",
		"period": 1,
		"timestamp": "00:03:12.500",
		"minute": 3,
		"second": 12,
		"type": {"id": 30, "name": "Pass"},
		"possession": 7,
		"play_pattern": {"id": 1, "name": "Regular Play"},
		"team": {"id": 217, "name": "Barcelona"},
		"player": {"id": 5503, "name": "Lionel Messi"},
		"location": [61.2, 40.1],
		"pass": {"end_location": [75.0, 42.3], "length": 14.0,
			"height": {"id": 1, "name": "Ground Pass"}}
	}`)

	row := Flatten(ev, 100, 42)

	if row.MatchID != 100 {
		t.Errorf("MatchID = %d, want 100", row.MatchID)
	}
	if row.IndexInFile != 42 {
		t.Errorf("IndexInFile = %d, want 42", row.IndexInFile)
	}
	if row.EventID != "a1" {
		t.Errorf("EventID = %q, want a1", row.EventID)
	}
	if row.EventType == nil || *row.EventType != "Pass" {
		t.Errorf("EventType = %v, want Pass", row.EventType)
	}
	if row.PlayPattern == nil || *row.PlayPattern != "Regular Play" {
		t.Errorf("PlayPattern = %v, want Regular Play", row.PlayPattern)
	}
	if row.TeamID == nil || *row.TeamID != 217 {
		t.Errorf("TeamID = %v, want 217", row.TeamID)
	}
	if row.PlayerID == nil || *row.PlayerID != 5503 {
		t.Errorf("PlayerID = %v, want 5503", row.PlayerID)
	}
	if row.X == nil || *row.X != 61.2 || row.Y == nil || *row.Y != 40.1 {
		t.Errorf("location = (%v,%v), want (61.2,40.1)", row.X, row.Y)
	}
	if row.EndX == nil || *row.EndX != 75.0 {
		t.Errorf("EndX = %v, want 75.0", row.EndX)
	}
	if row.PassHeight == nil || *row.PassHeight != "Ground Pass" {
		t.Errorf("PassHeight = %v, want Ground Pass", row.PassHeight)
	}
}

func TestFlattenPassNullPropagation(t *testing.T) {
	// No outcome sub-object: pass_outcome stays null, never a default.
	ev := decode(t, `{
		"id": "p1",
		"type": {"id": 30, "name": "Pass"},
		"pass": {"end_location": [10, 20], "length": 5.5, "cross": true}
	}`)

	row := Flatten(ev, 1, 0)

	if row.PassOutcome != nil {
		t.Errorf("PassOutcome = %v, want nil", *row.PassOutcome)
	}
	if row.PassHeight != nil {
		t.Errorf("PassHeight = %v, want nil", *row.PassHeight)
	}
	if row.PassCross == nil || !*row.PassCross {
		t.Errorf("PassCross = %v, want true", row.PassCross)
	}
	if row.PassSwitch != nil {
		t.Errorf("PassSwitch = %v, want nil", *row.PassSwitch)
	}
	if row.PassLength == nil || *row.PassLength != 5.5 {
		t.Errorf("PassLength = %v, want 5.5", row.PassLength)
	}
}

func TestFlattenPassMissingSubStructure(t *testing.T) {
	// Type tag says Pass but the pass object is absent: common fields
	// only, no error.
	ev := decode(t, `{"id": "p2", "type": {"id": 30, "name": "Pass"}}`)

	row := Flatten(ev, 1, 0)

	if row.EventType == nil || *row.EventType != "Pass" {
		t.Errorf("EventType = %v, want Pass", row.EventType)
	}
	if row.PassLength != nil || row.EndX != nil || row.EndY != nil {
		t.Error("expected all pass fields nil when sub-structure absent")
	}
}

func TestFlattenShot(t *testing.T) {
	ev := decode(t, `{
		"id": "s1",
		"type": {"id": 16, "name": "Shot"},
		"location": [110.0, 38.0],
		"shot": {
			"end_location": [120.0, 39.5],
			"outcome": {"id": 97, "name": "Goal"},
			"body_part": {"id": 40, "name": "Right Foot"},
			"type": {"id": 87, "name": "Open Play"},
			"statsbomb_xg": 0.3421
		}
	}`)

	row := Flatten(ev, 1, 0)

	if row.ShotOutcome == nil || *row.ShotOutcome != "Goal" {
		t.Errorf("ShotOutcome = %v, want Goal", row.ShotOutcome)
	}
	if row.ShotBodyPart == nil || *row.ShotBodyPart != "Right Foot" {
		t.Errorf("ShotBodyPart = %v, want Right Foot", row.ShotBodyPart)
	}
	if row.ShotType == nil || *row.ShotType != "Open Play" {
		t.Errorf("ShotType = %v, want Open Play", row.ShotType)
	}
	// xG passes through unmodified.
	if row.ShotXG == nil || *row.ShotXG != 0.3421 {
		t.Errorf("ShotXG = %v, want 0.3421", row.ShotXG)
	}
}

func TestFlattenTypeIsolation(t *testing.T) {
	// A Shot never populates pass, carry or duel columns.
	ev := decode(t, `{
		"id": "s2",
		"type": {"id": 16, "name": "Shot"},
		"shot": {"end_location": [120, 40], "statsbomb_xg": 0.05}
	}`)

	row := Flatten(ev, 1, 0)

	if row.PassLength != nil || row.PassHeight != nil || row.PassOutcome != nil {
		t.Error("shot row populated pass columns")
	}
	if row.CarryLength != nil {
		t.Error("shot row populated carry_length")
	}
	if row.DuelType != nil {
		t.Error("shot row populated duel_type")
	}
	if row.FoulCommitted != nil || row.FoulWon != nil {
		t.Error("shot row populated foul flags")
	}
}

func TestFlattenCarryLength(t *testing.T) {
	// 3-4-5 triangle.
	ev := decode(t, `{
		"id": "c1",
		"type": {"id": 43, "name": "Carry"},
		"location": [10, 20],
		"carry": {"end_location": [13, 24]}
	}`)

	row := Flatten(ev, 1, 0)

	if row.CarryLength == nil {
		t.Fatal("CarryLength = nil, want 5.0")
	}
	if math.Abs(*row.CarryLength-5.0) > 1e-9 {
		t.Errorf("CarryLength = %v, want 5.0", *row.CarryLength)
	}
	if row.EndX == nil || *row.EndX != 13 || row.EndY == nil || *row.EndY != 24 {
		t.Errorf("end location = (%v,%v), want (13,24)", row.EndX, row.EndY)
	}
}

func TestFlattenCarryLengthRequiresAllCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing start", `{"id":"c2","type":{"name":"Carry"},"carry":{"end_location":[13,24]}}`},
		{"missing end", `{"id":"c3","type":{"name":"Carry"},"location":[10,20],"carry":{}}`},
		{"one-element end", `{"id":"c4","type":{"name":"Carry"},"location":[10,20],"carry":{"end_location":[13]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Flatten(decode(t, tt.payload), 1, 0)
			if row.CarryLength != nil {
				t.Errorf("CarryLength = %v, want nil", *row.CarryLength)
			}
		})
	}
}

func TestFlattenDuel(t *testing.T) {
	ev := decode(t, `{
		"id": "d1",
		"type": {"id": 4, "name": "Duel"},
		"duel": {"type": {"id": 11, "name": "Tackle"}}
	}`)

	row := Flatten(ev, 1, 0)

	if row.DuelType == nil || *row.DuelType != "Tackle" {
		t.Errorf("DuelType = %v, want Tackle", row.DuelType)
	}
}

func TestFlattenFoulFlags(t *testing.T) {
	committed := Flatten(decode(t, `{"id":"f1","type":{"name":"Foul Committed"}}`), 1, 0)
	if committed.FoulCommitted == nil || !*committed.FoulCommitted {
		t.Errorf("FoulCommitted = %v, want true", committed.FoulCommitted)
	}
	if committed.FoulWon != nil {
		t.Errorf("FoulWon = %v, want nil", *committed.FoulWon)
	}

	won := Flatten(decode(t, `{"id":"f2","type":{"name":"Foul Won"}}`), 1, 0)
	if won.FoulWon == nil || !*won.FoulWon {
		t.Errorf("FoulWon = %v, want true", won.FoulWon)
	}
	if won.FoulCommitted != nil {
		t.Errorf("FoulCommitted = %v, want nil", *won.FoulCommitted)
	}
}

func TestFlattenNoType(t *testing.T) {
	// An event with no type tag at all still flattens to common fields.
	row := Flatten(decode(t, `{"id":"n1","period":2,"minute":50}`), 1, 3)

	if row.EventType != nil {
		t.Errorf("EventType = %v, want nil", *row.EventType)
	}
	if row.Period == nil || *row.Period != 2 {
		t.Errorf("Period = %v, want 2", row.Period)
	}
}

func TestXYOf(t *testing.T) {
	tests := []struct {
		name  string
		loc   []float64
		wantX *float64
		wantY *float64
	}{
		{"nil", nil, nil, nil},
		{"empty", []float64{}, nil, nil},
		{"one element", []float64{3.0}, nil, nil},
		{"two elements", []float64{3.0, 4.0}, f(3.0), f(4.0)},
		{"extra elements ignored", []float64{3.0, 4.0, 0.5}, f(3.0), f(4.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := xyOf(tt.loc)
			if !eqf(x, tt.wantX) || !eqf(y, tt.wantY) {
				t.Errorf("xyOf(%v) = (%v,%v), want (%v,%v)", tt.loc, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestNameOfAndIDOf(t *testing.T) {
	if nameOf(nil) != nil {
		t.Error("nameOf(nil) should be nil")
	}
	if idOf(nil) != nil {
		t.Error("idOf(nil) should be nil")
	}

	name := "Pass"
	id := int64(30)
	ref := &event.TagRef{ID: &id, Name: &name}
	if got := nameOf(ref); got == nil || *got != "Pass" {
		t.Errorf("nameOf = %v, want Pass", got)
	}
	if got := idOf(ref); got == nil || *got != 30 {
		t.Errorf("idOf = %v, want 30", got)
	}

	// Partially populated ref.
	empty := &event.TagRef{}
	if nameOf(empty) != nil || idOf(empty) != nil {
		t.Error("empty ref should yield nils")
	}
}

func f(v float64) *float64 { return &v }

func eqf(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
