package sink

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/pkg/event"
	"github.com/jittakal/matcheventstore/pkg/sink"
)

// Ensure implementation satisfies interface at compile time.
var _ sink.Sink = (*ParquetSink)(nil)

// FlatEventParquet represents the Parquet schema for flattened event rows.
// Pointer fields map to optional columns so null-heavy type-specific
// columns encode as true NULLs rather than zero values.
type FlatEventParquet struct {
	MatchID     int64  `parquet:"match_id"`
	EventID     string `parquet:"event_id"`
	IndexInFile int64  `parquet:"index_in_file"`

	Period    *int64  `parquet:"period,optional"`
	Timestamp *string `parquet:"timestamp,optional"`
	Minute    *int64  `parquet:"minute,optional"`
	Second    *int64  `parquet:"second,optional"`

	EventType   *string `parquet:"event_type,dict,optional"`
	Possession  *int64  `parquet:"possession,optional"`
	PlayPattern *string `parquet:"play_pattern,dict,optional"`

	TeamID   *int64 `parquet:"team_id,optional"`
	PlayerID *int64 `parquet:"player_id,optional"`

	X    *float64 `parquet:"x,optional"`
	Y    *float64 `parquet:"y,optional"`
	EndX *float64 `parquet:"end_x,optional"`
	EndY *float64 `parquet:"end_y,optional"`

	PassLength  *float64 `parquet:"pass_length,optional"`
	PassHeight  *string  `parquet:"pass_height,dict,optional"`
	PassOutcome *string  `parquet:"pass_outcome,dict,optional"`
	PassCross   *bool    `parquet:"pass_cross,optional"`
	PassSwitch  *bool    `parquet:"pass_switch,optional"`

	ShotOutcome  *string  `parquet:"shot_outcome,dict,optional"`
	ShotBodyPart *string  `parquet:"shot_body_part,dict,optional"`
	ShotType     *string  `parquet:"shot_type,dict,optional"`
	ShotXG       *float64 `parquet:"shot_xg,optional"`

	CarryLength *float64 `parquet:"carry_length,optional"`

	DuelType      *string `parquet:"duel_type,dict,optional"`
	FoulCommitted *bool   `parquet:"foul_committed,optional"`
	FoulWon       *bool   `parquet:"foul_won,optional"`
}

// ParquetSink implements sink.Sink as a sequence of self-contained
// Parquet part files, one per batch. Supports multiple compression
// codecs: SNAPPY (default), GZIP, LZ4, ZSTD.
type ParquetSink struct {
	outDir      string
	baseName    string
	compression string
	part        int
	closed      bool
	logger      *slog.Logger
}

// NewParquetSink creates a Parquet sink writing numbered part files
// under outDir.
func NewParquetSink(outDir, baseName, compression string, logger *slog.Logger) *ParquetSink {
	return &ParquetSink{
		outDir:      outDir,
		baseName:    baseName,
		compression: compression,
		logger:      logger,
	}
}

// compressionCodec converts a compression name to a parquet WriterOption.
func compressionCodec(compression string) parquet.WriterOption {
	switch compression {
	case "snappy", "SNAPPY":
		return parquet.Compression(&parquet.Snappy)
	case "gzip", "GZIP":
		return parquet.Compression(&parquet.Gzip)
	case "lz4", "LZ4":
		return parquet.Compression(&parquet.Lz4Raw)
	case "zstd", "ZSTD":
		return parquet.Compression(&parquet.Zstd)
	case "uncompressed", "UNCOMPRESSED", "none", "NONE":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// WriteBatch writes one batch as a complete part file and advances the
// part counter.
func (s *ParquetSink) WriteBatch(rows []event.FlatEvent) (*sink.BatchStats, error) {
	if s.closed {
		return nil, apperrors.ErrSinkClosed
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyBatch
	}

	path := filepath.Join(s.outDir, partName(s.baseName, s.part, ".parquet"))
	file, err := os.Create(path)
	if err != nil {
		return nil, &apperrors.StorageError{Operation: "create", Path: path, Err: err}
	}

	records := make([]FlatEventParquet, len(rows))
	for i := range rows {
		records[i] = toParquetRecord(&rows[i])
	}

	schema := parquet.SchemaOf(new(FlatEventParquet))
	writer := parquet.NewGenericWriter[FlatEventParquet](
		file,
		schema,
		compressionCodec(s.compression),
		parquet.CreatedBy("match-event-store", "1.0", "0"),
	)

	if _, err := writer.Write(records); err != nil {
		writer.Close()
		file.Close()
		return nil, &apperrors.StorageError{Operation: "write", Path: path, Err: err}
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return nil, &apperrors.StorageError{Operation: "close", Path: path, Err: err}
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
func (s *ParquetSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("closed parquet output", "parts", s.part)
	return nil
}

// Format returns the output format.
func (s *ParquetSink) Format() event.FileFormat {
	return event.FormatParquet
}

// toParquetRecord maps a flat row onto the Parquet schema struct.
func toParquetRecord(row *event.FlatEvent) FlatEventParquet {
	return FlatEventParquet{
		MatchID:       row.MatchID,
		EventID:       row.EventID,
		IndexInFile:   row.IndexInFile,
		Period:        row.Period,
		Timestamp:     row.Timestamp,
		Minute:        row.Minute,
		Second:        row.Second,
		EventType:     row.EventType,
		Possession:    row.Possession,
		PlayPattern:   row.PlayPattern,
		TeamID:        row.TeamID,
		PlayerID:      row.PlayerID,
		X:             row.X,
		Y:             row.Y,
		EndX:          row.EndX,
		EndY:          row.EndY,
		PassLength:    row.PassLength,
		PassHeight:    row.PassHeight,
		PassOutcome:   row.PassOutcome,
		PassCross:     row.PassCross,
		PassSwitch:    row.PassSwitch,
		ShotOutcome:   row.ShotOutcome,
		ShotBodyPart:  row.ShotBodyPart,
		ShotType:      row.ShotType,
		ShotXG:        row.ShotXG,
		CarryLength:   row.CarryLength,
		DuelType:      row.DuelType,
		FoulCommitted: row.FoulCommitted,
		FoulWon:       row.FoulWon,
	}
}
