// Package flatten turns nested event payloads into fixed-column flat rows.
//
// Flattening is a pure transformation: it never errors, never drops a
// record, and maps every absent field or sub-structure to a null column.
package flatten

import (
	"math"

	"github.com/jittakal/matcheventstore/pkg/event"
)

// Flatten converts one decoded event payload into a flat row. matchID and
// indexInFile come from the caller's positional context, not the payload.
//
// The row starts all-null, common fields are filled first, then exactly
// one per-type extraction runs based on the type tag. The two foul flags
// are independent checks on top of that dispatch, not alternatives to it.
func Flatten(ev *event.EventPayload, matchID, indexInFile int64) event.FlatEvent {
	x, y := xyOf(ev.Location)

	row := event.FlatEvent{
		MatchID:     matchID,
		EventID:     ev.ID,
		IndexInFile: indexInFile,

		Period:    ev.Period,
		Timestamp: ev.Timestamp,
		Minute:    ev.Minute,
		Second:    ev.Second,

		EventType:   nameOf(ev.Type),
		Possession:  ev.Possession,
		PlayPattern: nameOf(ev.PlayPattern),

		TeamID:   idOf(ev.Team),
		PlayerID: idOf(ev.Player),

		X: x,
		Y: y,
	}

	switch typeName(ev) {
	case event.TypePass:
		if p := ev.Pass; p != nil {
			row.EndX, row.EndY = xyOf(p.EndLocation)
			row.PassLength = p.Length
			row.PassHeight = nameOf(p.Height)
			row.PassOutcome = nameOf(p.Outcome)
			row.PassCross = p.Cross
			row.PassSwitch = p.Switch
		}
	case event.TypeShot:
		if sh := ev.Shot; sh != nil {
			row.EndX, row.EndY = xyOf(sh.EndLocation)
			row.ShotOutcome = nameOf(sh.Outcome)
			row.ShotBodyPart = nameOf(sh.BodyPart)
			row.ShotType = nameOf(sh.Type)
			row.ShotXG = sh.XG
		}
	case event.TypeCarry:
		if c := ev.Carry; c != nil {
			row.EndX, row.EndY = xyOf(c.EndLocation)
			row.CarryLength = carryLength(row.X, row.Y, row.EndX, row.EndY)
		}
	}

	if typeName(ev) == event.TypeDuel && ev.Duel != nil {
		row.DuelType = nameOf(ev.Duel.Type)
	}

	switch typeName(ev) {
	case event.TypeFoulCommitted:
		row.FoulCommitted = boolPtr(true)
	case event.TypeFoulWon:
		row.FoulWon = boolPtr(true)
	}

	return row
}

// typeName returns the event's type tag, or "" when absent.
func typeName(ev *event.EventPayload) string {
	if name := nameOf(ev.Type); name != nil {
		return *name
	}
	return ""
}

// nameOf reads the name of a tagged sub-object, nil-safe at every step.
func nameOf(ref *event.TagRef) *string {
	if ref == nil {
		return nil
	}
	return ref.Name
}

// idOf reads the id of a tagged sub-object, nil-safe at every step.
func idOf(ref *event.TagRef) *int64 {
	if ref == nil {
		return nil
	}
	return ref.ID
}

// xyOf unpacks a 2-element location sequence. Missing or malformed
// locations yield two nils.
func xyOf(loc []float64) (*float64, *float64) {
	if len(loc) < 2 {
		return nil, nil
	}
	x, y := loc[0], loc[1]
	return &x, &y
}

// carryLength computes the Euclidean distance between start and end
// coordinates. It is the one derived numeric field in the flat schema and
// requires all four coordinates; anything less stays null.
func carryLength(x, y, endX, endY *float64) *float64 {
	if x == nil || y == nil || endX == nil || endY == nil {
		return nil
	}
	d := math.Hypot(*endX-*x, *endY-*y)
	return &d
}

func boolPtr(b bool) *bool { return &b }
