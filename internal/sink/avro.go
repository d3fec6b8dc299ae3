package sink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/linkedin/goavro/v2"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/pkg/event"
	"github.com/jittakal/matcheventstore/pkg/sink"
)

// Ensure implementation satisfies interface at compile time.
var _ sink.Sink = (*AvroSink)(nil)

// AvroSink implements sink.Sink as a sequence of self-contained Avro
// OCF (Object Container File) part files, one per batch. Compression is
// applied per OCF block via the container codec.
type AvroSink struct {
	codec       *goavro.Codec
	outDir      string
	baseName    string
	compression string
	part        int
	closed      bool
	logger      *slog.Logger
}

// NewAvroSink creates an Avro sink writing numbered part files under
// outDir.
func NewAvroSink(outDir, baseName, compression string, logger *slog.Logger) (*AvroSink, error) {
	codec, err := goavro.NewCodec(avroSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}
	return &AvroSink{
		codec:       codec,
		outDir:      outDir,
		baseName:    baseName,
		compression: compression,
		logger:      logger,
	}, nil
}

// avroSchema returns the Avro schema for flattened event rows. Every
// type-specific column is a nullable union.
func avroSchema() string {
	return `{
		"type": "record",
		"name": "FlatEvent",
		"namespace": "com.match.event.store",
		"fields": [
			{"name": "match_id", "type": "long"},
			{"name": "event_id", "type": "string"},
			{"name": "index_in_file", "type": "long"},
			{"name": "period", "type": ["null", "long"], "default": null},
			{"name": "timestamp", "type": ["null", "string"], "default": null},
			{"name": "minute", "type": ["null", "long"], "default": null},
			{"name": "second", "type": ["null", "long"], "default": null},
			{"name": "event_type", "type": ["null", "string"], "default": null},
			{"name": "possession", "type": ["null", "long"], "default": null},
			{"name": "play_pattern", "type": ["null", "string"], "default": null},
			{"name": "team_id", "type": ["null", "long"], "default": null},
			{"name": "player_id", "type": ["null", "long"], "default": null},
			{"name": "x", "type": ["null", "double"], "default": null},
			{"name": "y", "type": ["null", "double"], "default": null},
			{"name": "end_x", "type": ["null", "double"], "default": null},
			{"name": "end_y", "type": ["null", "double"], "default": null},
			{"name": "pass_length", "type": ["null", "double"], "default": null},
			{"name": "pass_height", "type": ["null", "string"], "default": null},
			{"name": "pass_outcome", "type": ["null", "string"], "default": null},
			{"name": "pass_cross", "type": ["null", "boolean"], "default": null},
			{"name": "pass_switch", "type": ["null", "boolean"], "default": null},
			{"name": "shot_outcome", "type": ["null", "string"], "default": null},
			{"name": "shot_body_part", "type": ["null", "string"], "default": null},
			{"name": "shot_type", "type": ["null", "string"], "default": null},
			{"name": "shot_xg", "type": ["null", "double"], "default": null},
			{"name": "carry_length", "type": ["null", "double"], "default": null},
			{"name": "duel_type", "type": ["null", "string"], "default": null},
			{"name": "foul_committed", "type": ["null", "boolean"], "default": null},
			{"name": "foul_won", "type": ["null", "boolean"], "default": null}
		]
	}`
}

// ocfCompression maps the configured compression name onto an OCF
// container codec. Avro containers support null, deflate and snappy.
func ocfCompression(compression string) string {
	switch compression {
	case "snappy", "SNAPPY":
		return goavro.CompressionSnappyLabel
	case "gzip", "GZIP", "deflate", "DEFLATE":
		return goavro.CompressionDeflateLabel
	default:
		return goavro.CompressionNullLabel
	}
}

// WriteBatch writes one batch as a complete part file and advances the
// part counter.
func (s *AvroSink) WriteBatch(rows []event.FlatEvent) (*sink.BatchStats, error) {
	if s.closed {
		return nil, apperrors.ErrSinkClosed
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyBatch
	}

	path := filepath.Join(s.outDir, partName(s.baseName, s.part, ".avro"))
	file, err := os.Create(path)
	if err != nil {
		return nil, &apperrors.StorageError{Operation: "create", Path: path, Err: err}
	}

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               file,
		Codec:           s.codec,
		CompressionName: ocfCompression(s.compression),
	})
	if err != nil {
		file.Close()
		return nil, &apperrors.StorageError{Operation: "create", Path: path, Err: err}
	}

	records := make([]interface{}, len(rows))
	for i := range rows {
		records[i] = toAvroMap(&rows[i])
	}
	if err := ocfWriter.Append(records); err != nil {
		file.Close()
		return nil, &apperrors.StorageError{Operation: "write", Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return nil, &apperrors.StorageError{Operation: "close", Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &apperrors.StorageError{Operation: "stat", Path: path, Err: err}
	}

	s.part++
	return &sink.BatchStats{
		RowCount:  len(rows),
		SizeBytes: info.Size(),
		Path:      path,
		Complete:  true,
	}, nil
}

// Close marks the sink closed. Every part file is already complete.
func (s *AvroSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("closed avro output", "parts", s.part)
	return nil
}

// Format returns the output format.
func (s *AvroSink) Format() event.FileFormat {
	return event.FormatAvro
}

// toAvroMap converts a flat row to its Avro map representation, using
// union wrappers for non-null optional values.
func toAvroMap(row *event.FlatEvent) map[string]interface{} {
	return map[string]interface{}{
		"match_id":       row.MatchID,
		"event_id":       row.EventID,
		"index_in_file":  row.IndexInFile,
		"period":         unionLong(row.Period),
		"timestamp":      unionString(row.Timestamp),
		"minute":         unionLong(row.Minute),
		"second":         unionLong(row.Second),
		"event_type":     unionString(row.EventType),
		"possession":     unionLong(row.Possession),
		"play_pattern":   unionString(row.PlayPattern),
		"team_id":        unionLong(row.TeamID),
		"player_id":      unionLong(row.PlayerID),
		"x":              unionDouble(row.X),
		"y":              unionDouble(row.Y),
		"end_x":          unionDouble(row.EndX),
		"end_y":          unionDouble(row.EndY),
		"pass_length":    unionDouble(row.PassLength),
		"pass_height":    unionString(row.PassHeight),
		"pass_outcome":   unionString(row.PassOutcome),
		"pass_cross":     unionBool(row.PassCross),
		"pass_switch":    unionBool(row.PassSwitch),
		"shot_outcome":   unionString(row.ShotOutcome),
		"shot_body_part": unionString(row.ShotBodyPart),
		"shot_type":      unionString(row.ShotType),
		"shot_xg":        unionDouble(row.ShotXG),
		"carry_length":   unionDouble(row.CarryLength),
		"duel_type":      unionString(row.DuelType),
		"foul_committed": unionBool(row.FoulCommitted),
		"foul_won":       unionBool(row.FoulWon),
	}
}

func unionString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return goavro.Union("string", *v)
}

func unionLong(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return goavro.Union("long", *v)
}

func unionDouble(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return goavro.Union("double", *v)
}

func unionBool(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return goavro.Union("boolean", *v)
}
