// Package export implements the flat-event export pipeline.
package export

import (
	"github.com/jittakal/matcheventstore/pkg/event"
)

// RowBuffer accumulates flattened rows until a batch is full. The
// exporter is single-threaded, so no locking is needed; batch size is
// the only rotation criterion.
type RowBuffer struct {
	rows      []event.FlatEvent
	batchSize int
}

// NewRowBuffer creates a buffer holding up to batchSize rows.
func NewRowBuffer(batchSize int) *RowBuffer {
	return &RowBuffer{
		rows:      make([]event.FlatEvent, 0, batchSize),
		batchSize: batchSize,
	}
}

// Add appends one row to the buffer.
func (b *RowBuffer) Add(row event.FlatEvent) {
	b.rows = append(b.rows, row)
}

// Full returns true once the buffer holds a complete batch.
func (b *RowBuffer) Full() bool {
	return len(b.rows) >= b.batchSize
}

// IsEmpty returns true if the buffer holds no rows.
func (b *RowBuffer) IsEmpty() bool {
	return len(b.rows) == 0
}

// Len returns the number of buffered rows.
func (b *RowBuffer) Len() int {
	return len(b.rows)
}

// Drain removes and returns all buffered rows. The returned slice is
// owned by the caller.
func (b *RowBuffer) Drain() []event.FlatEvent {
	rows := b.rows
	b.rows = make([]event.FlatEvent, 0, b.batchSize)
	return rows
}
