package storage

import (
	"context"
	"log/slog"
)

// Ensure implementation satisfies interface at compile time.
var _ Destination = (*FileDestination)(nil)

// FileDestination keeps outputs where the sink wrote them. Publish is a
// log-only acknowledgement so the export pipeline treats local and
// remote backends uniformly.
type FileDestination struct {
	logger *slog.Logger
}

// NewFileDestination creates a local filesystem destination.
func NewFileDestination(logger *slog.Logger) *FileDestination {
	return &FileDestination{logger: logger}
}

// Publish acknowledges a completed local file.
func (d *FileDestination) Publish(_ context.Context, localPath string) error {
	d.logger.Debug("output file completed", "path", localPath)
	return nil
}

// Name identifies the backend.
func (d *FileDestination) Name() string {
	return "file"
}
