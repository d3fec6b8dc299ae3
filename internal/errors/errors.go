// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrNoMatches      = errors.New("no matches for selection")
	ErrSinkClosed     = errors.New("sink is closed")
	ErrEmptyBatch     = errors.New("empty batch")
	ErrSourceMissing  = errors.New("source directory not found")
	ErrStoreMissing   = errors.New("store file not found")
	ErrInvalidPayload = errors.New("invalid payload")
)

// IngestError represents a failure while ingesting one source file.
type IngestError struct {
	SourceFile string
	Err        error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest error: source_file=%s: %v", e.SourceFile, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// ParseError represents a malformed stored payload encountered during
// export streaming. It marks a single skipped record, not a fatal run
// condition.
type ParseError struct {
	MatchID int64
	EventID string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: match_id=%d event_id=%s: %v",
		e.MatchID, e.EventID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError represents an output storage operation failure.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: operation=%s path=%s: %v",
		e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError represents a source payload validation failure.
type ValidationError struct {
	SourceFile string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: source_file=%s field=%s: %s",
		e.SourceFile, e.Field, e.Reason)
}
