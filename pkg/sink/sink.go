// Package sink defines interfaces for writing flattened event batches.
//
// A sink accepts batches repeatedly and may be called any number of times
// before Close; the exporter stays format-agnostic behind this contract.
package sink

import "github.com/jittakal/matcheventstore/pkg/event"

// Sink writes batches of flattened rows to an output destination.
type Sink interface {
	// WriteBatch writes one batch. Columnar sinks produce a new,
	// independently complete part file per call; row-oriented sinks
	// append to a single growing file with the header written exactly
	// once, on the first call.
	WriteBatch(rows []event.FlatEvent) (*BatchStats, error)

	// Close flushes and closes the sink. Safe to call once.
	Close() error

	// Format returns the output format this sink produces.
	Format() event.FileFormat
}

// BatchStats describes the outcome of a single WriteBatch call.
type BatchStats struct {
	RowCount  int
	SizeBytes int64
	// Path is the file written by this batch.
	Path string
	// Complete reports whether Path is finished after this batch
	// (true for part files, false for a growing single file).
	Complete bool
}
