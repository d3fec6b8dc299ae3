package validator

import (
	"testing"

	"github.com/jittakal/matcheventstore/pkg/event"
)

func TestValidateMatch(t *testing.T) {
	tests := []struct {
		name    string
		match   *event.MatchPayload
		wantErr bool
	}{
		{"valid", &event.MatchPayload{MatchID: 100}, false},
		{"nil payload", nil, true},
		{"zero match id", &event.MatchPayload{}, true},
		{"negative match id", &event.MatchPayload{MatchID: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMatch("matches/2/2020.json", tt.match)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name    string
		ev      *event.EventPayload
		wantErr bool
	}{
		{"valid", &event.EventPayload{ID: "abc"}, false},
		{"nil payload", nil, true},
		{"missing id", &event.EventPayload{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEvent("events/100.json", tt.ev)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
