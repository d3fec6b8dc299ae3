// Package validator implements best-effort source payload validation.
//
// Validation is limited to the fields the store keys on; anything beyond
// that is the flattener's null-propagation problem, not an ingest error.
package validator

import (
	"github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/pkg/event"
)

// ValidateMatch checks that a match payload can be keyed.
func ValidateMatch(sourceFile string, m *event.MatchPayload) error {
	if m == nil {
		return &errors.ValidationError{
			SourceFile: sourceFile,
			Field:      "match",
			Reason:     "payload is nil",
		}
	}
	if m.MatchID <= 0 {
		return &errors.ValidationError{
			SourceFile: sourceFile,
			Field:      "match_id",
			Reason:     "missing or non-positive",
		}
	}
	return nil
}

// ValidateEvent checks that an event payload can be keyed.
func ValidateEvent(sourceFile string, ev *event.EventPayload) error {
	if ev == nil {
		return &errors.ValidationError{
			SourceFile: sourceFile,
			Field:      "event",
			Reason:     "payload is nil",
		}
	}
	if ev.ID == "" {
		return &errors.ValidationError{
			SourceFile: sourceFile,
			Field:      "id",
			Reason:     "missing event id",
		}
	}
	return nil
}
