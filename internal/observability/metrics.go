package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ingest and export pipelines.
type Metrics struct {
	// Ingestion metrics
	MatchFilesIngested prometheus.Counter
	MatchesUpserted    prometheus.Counter
	EventsUpserted     prometheus.Counter
	EventFilesMissing  prometheus.Counter
	IngestDuration     prometheus.Histogram

	// Export metrics
	RowsExported         *prometheus.CounterVec
	BatchesFlushed       *prometheus.CounterVec
	PayloadParseFailures prometheus.Counter
	BatchWriteDuration   *prometheus.HistogramVec
	OutputFileSize       *prometheus.HistogramVec

	// Storage metrics
	StorageErrors *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		MatchFilesIngested: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_match_files_total",
				Help: "Total number of match source files ingested",
			},
		),
		MatchesUpserted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_matches_upserted_total",
				Help: "Total number of match records upserted",
			},
		),
		EventsUpserted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_events_upserted_total",
				Help: "Total number of event records upserted",
			},
		),
		EventFilesMissing: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_event_files_missing_total",
				Help: "Total number of matches with no companion event file",
			},
		),
		IngestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_duration_seconds",
				Help:    "Duration of full ingestion runs",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
			},
		),
		RowsExported: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "export_rows_total",
				Help: "Total number of flattened rows written",
			},
			[]string{"format"},
		),
		BatchesFlushed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "export_batches_total",
				Help: "Total number of output batches flushed",
			},
			[]string{"format"},
		),
		PayloadParseFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "export_payload_parse_failures_total",
				Help: "Total number of stored payloads skipped as malformed",
			},
		),
		BatchWriteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "export_batch_write_duration_seconds",
				Help:    "Duration of single batch writes",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"format"},
		),
		OutputFileSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "export_output_file_bytes",
				Help:    "Size of completed output files",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 12),
			},
			[]string{"format"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_errors_total",
				Help: "Total number of output storage errors",
			},
			[]string{"backend", "operation"},
		),
	}
}
