package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}

	metrics.MatchFilesIngested.Inc()
	metrics.EventsUpserted.Add(3)
	metrics.RowsExported.WithLabelValues("csv").Add(10)
	metrics.PayloadParseFailures.Inc()

	if got := testutil.ToFloat64(metrics.MatchFilesIngested); got != 1 {
		t.Errorf("MatchFilesIngested = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.EventsUpserted); got != 3 {
		t.Errorf("EventsUpserted = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.RowsExported.WithLabelValues("csv")); got != 10 {
		t.Errorf("RowsExported[csv] = %v, want 10", got)
	}
}

func TestNewMetricsRegistersOnce(t *testing.T) {
	// A fresh registry per Metrics value must not panic on registration.
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}
