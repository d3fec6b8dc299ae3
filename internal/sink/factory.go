package sink

import (
	"fmt"
	"log/slog"
	"os"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/pkg/event"
	"github.com/jittakal/matcheventstore/pkg/sink"
)

// Factory creates sinks based on format and configuration.
type Factory struct {
	format      event.FileFormat
	compression string
	logger      *slog.Logger
}

// NewFactory creates a new sink factory.
func NewFactory(format event.FileFormat, compression string, logger *slog.Logger) *Factory {
	return &Factory{
		format:      format,
		compression: compression,
		logger:      logger,
	}
}

// Format returns the format this factory builds sinks for.
func (f *Factory) Format() event.FileFormat {
	return f.format
}

// CreateSink creates a sink for one export run, ensuring the output
// directory exists first.
func (f *Factory) CreateSink(outDir, baseName string) (sink.Sink, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, &apperrors.StorageError{Operation: "mkdir", Path: outDir, Err: err}
	}
	switch f.format {
	case event.FormatCSV:
		return NewCSVSink(outDir, baseName, f.logger), nil
	case event.FormatParquet:
		return NewParquetSink(outDir, baseName, f.compression, f.logger), nil
	case event.FormatAvro:
		return NewAvroSink(outDir, baseName, f.compression, f.logger)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: %v)", f.format, SupportedFormats())
	}
}

// ColumnarAvailable reports whether a columnar writer is compiled into
// the binary. The decision point is kept explicit so the row-oriented
// fallback stays reachable and tested.
func ColumnarAvailable() bool {
	return true
}

// ResolveFormat maps the configured format name onto a concrete file
// format. "auto" prefers the partitioned columnar strategy when one is
// available and falls back to the single-file row strategy otherwise.
func ResolveFormat(configured string) (event.FileFormat, error) {
	switch configured {
	case "csv":
		return event.FormatCSV, nil
	case "parquet":
		return event.FormatParquet, nil
	case "avro":
		return event.FormatAvro, nil
	case "auto":
		if ColumnarAvailable() {
			return event.FormatParquet, nil
		}
		return event.FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: auto, %v)", configured, SupportedFormats())
	}
}

// SupportedFormats returns the formats the factory can build sinks for.
func SupportedFormats() []event.FileFormat {
	return []event.FileFormat{
		event.FormatCSV,
		event.FormatParquet,
		event.FormatAvro,
	}
}

// BaseName builds the output base name for one league selection.
func BaseName(competitionID, seasonID int64) string {
	return fmt.Sprintf("events_flat_league_%d_%d", competitionID, seasonID)
}
