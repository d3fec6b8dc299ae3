// Package storage implements destinations for completed export outputs.
package storage

import "context"

// Destination publishes completed local output files. The export
// pipeline always writes locally first; a destination decides whether
// the file also goes somewhere else.
type Destination interface {
	// Publish uploads one completed local file. localPath must name a
	// finished file; partial outputs are never published.
	Publish(ctx context.Context, localPath string) error

	// Name identifies the backend for logs and metrics.
	Name() string
}
