package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/internal/flatten"
	"github.com/jittakal/matcheventstore/internal/observability"
	"github.com/jittakal/matcheventstore/internal/storage"
	"github.com/jittakal/matcheventstore/internal/store"
	"github.com/jittakal/matcheventstore/pkg/event"
	"github.com/jittakal/matcheventstore/pkg/sink"
)

// SinkFactory builds one sink per export run.
type SinkFactory interface {
	CreateSink(outDir, baseName string) (sink.Sink, error)
	Format() event.FileFormat
}

// Options configures one export run.
type Options struct {
	CompetitionID int64
	SeasonID      int64
	Players       []int64
	OutDir        string
	BaseName      string
	BatchSize     int
	FetchPageSize int
}

// Summary reports what one export run produced.
type Summary struct {
	Matches  int
	Total    int64
	Exported int64
	Skipped  int64
	Batches  int
	OutPath  string
}

// Exporter streams one league selection out of the store, flattens each
// event and writes fixed-schema rows through a sink. Output granularity
// is controlled by the batch size alone; the fetch page size only bounds
// how many stored rows are held in memory at once.
type Exporter struct {
	store       *store.Store
	factory     SinkFactory
	destination storage.Destination
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates an exporter.
func New(
	st *store.Store,
	factory SinkFactory,
	destination storage.Destination,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Exporter {
	return &Exporter{
		store:       st,
		factory:     factory,
		destination: destination,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run exports the selected league. Malformed stored payloads are skipped
// and counted, never fatal; every decodable event in the selection ends
// up in the output exactly once, in (match_id, index_in_file) order.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Summary, error) {
	sel, err := e.store.SelectLeague(ctx, opts.CompetitionID, opts.SeasonID, opts.Players)
	if err != nil {
		return nil, err
	}

	total, err := sel.CountEvents(ctx)
	if err != nil {
		return nil, err
	}

	out, err := e.factory.CreateSink(opts.OutDir, opts.BaseName)
	if err != nil {
		return nil, err
	}
	format := string(out.Format())

	e.logger.Info("starting export",
		"competition_id", opts.CompetitionID,
		"season_id", opts.SeasonID,
		"matches", sel.MatchCount,
		"events", total,
		"format", format,
		"batch_size", opts.BatchSize,
	)

	rows, err := sel.StreamEvents(ctx)
	if err != nil {
		out.Close()
		return nil, err
	}
	defer rows.Close()

	summary := &Summary{Matches: sel.MatchCount, Total: total}
	buf := NewRowBuffer(opts.BatchSize)
	page := make([]event.StoredEvent, 0, opts.FetchPageSize)

	for {
		page = page[:0]
		for len(page) < opts.FetchPageSize && rows.Next() {
			var stored event.StoredEvent
			if err := rows.StructScan(&stored); err != nil {
				out.Close()
				return nil, fmt.Errorf("failed to scan stored event: %w", err)
			}
			page = append(page, stored)
		}
		if err := rows.Err(); err != nil {
			out.Close()
			return nil, fmt.Errorf("failed to read event stream: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			row, ok := e.flattenStored(&page[i])
			if !ok {
				summary.Skipped++
				continue
			}
			buf.Add(row)
			if buf.Full() {
				if err := e.flush(ctx, buf, out, format, total, summary); err != nil {
					out.Close()
					return nil, err
				}
			}
		}
	}

	if !buf.IsEmpty() {
		if err := e.flush(ctx, buf, out, format, total, summary); err != nil {
			out.Close()
			return nil, err
		}
	}

	if err := out.Close(); err != nil {
		return nil, err
	}

	// Row-oriented output is one growing file, complete only after close.
	if summary.OutPath != "" && !out.Format().Columnar() {
		if err := e.destination.Publish(ctx, summary.OutPath); err != nil {
			return nil, err
		}
	}

	e.logger.Info("export complete",
		"exported", summary.Exported,
		"skipped", summary.Skipped,
		"batches", summary.Batches,
		"out_path", summary.OutPath,
	)
	return summary, nil
}

// flattenStored decodes one stored payload and flattens it. The event id
// always comes from the stored record, not the payload body.
func (e *Exporter) flattenStored(stored *event.StoredEvent) (event.FlatEvent, bool) {
	var payload event.EventPayload
	if err := json.Unmarshal(stored.Payload, &payload); err != nil {
		e.metrics.PayloadParseFailures.Inc()
		e.logger.Warn("skipping malformed stored payload",
			"error", &apperrors.ParseError{MatchID: stored.MatchID, EventID: stored.EventID, Err: err},
		)
		return event.FlatEvent{}, false
	}

	row := flatten.Flatten(&payload, stored.MatchID, stored.IndexInFile)
	row.EventID = stored.EventID
	return row, true
}

// flush drains the buffer into the sink and reports progress.
func (e *Exporter) flush(ctx context.Context, buf *RowBuffer, out sink.Sink, format string, total int64, summary *Summary) error {
	batch := buf.Drain()
	start := time.Now()
	stats, err := out.WriteBatch(batch)
	if err != nil {
		return err
	}

	summary.Exported += int64(stats.RowCount)
	summary.Batches++
	summary.OutPath = stats.Path

	e.metrics.RowsExported.WithLabelValues(format).Add(float64(stats.RowCount))
	e.metrics.BatchesFlushed.WithLabelValues(format).Inc()
	e.metrics.BatchWriteDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())

	if stats.Complete {
		e.metrics.OutputFileSize.WithLabelValues(format).Observe(float64(stats.SizeBytes))
		if err := e.destination.Publish(ctx, stats.Path); err != nil {
			return err
		}
	}

	pct := 0.0
	if total > 0 {
		pct = float64(summary.Exported+summary.Skipped) / float64(total) * 100
	}
	e.logger.Info("flushed batch",
		"rows", stats.RowCount,
		"path", stats.Path,
		"progress", fmt.Sprintf("%d/%d (%.1f%%)", summary.Exported+summary.Skipped, total, pct),
	)
	return nil
}
