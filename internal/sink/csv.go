// Package sink implements output sinks for flattened event rows.
package sink

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/pkg/event"
	"github.com/jittakal/matcheventstore/pkg/sink"
)

// Ensure implementation satisfies interface at compile time.
var _ sink.Sink = (*CSVSink)(nil)

// CSVSink implements sink.Sink as a single growing row-oriented file.
// The header is written exactly once, before the first batch; subsequent
// batches append. The file is created lazily so an export that produces
// no rows leaves no file behind.
type CSVSink struct {
	path   string
	file   *os.File
	w      *csv.Writer
	closed bool
	logger *slog.Logger
}

// NewCSVSink creates a CSV sink writing {outDir}/{baseName}.csv.
func NewCSVSink(outDir, baseName string, logger *slog.Logger) *CSVSink {
	return &CSVSink{
		path:   filepath.Join(outDir, baseName+".csv"),
		logger: logger,
	}
}

// WriteBatch appends one batch of rows, writing the header first if this
// is the first batch of the run.
func (s *CSVSink) WriteBatch(rows []event.FlatEvent) (*sink.BatchStats, error) {
	if s.closed {
		return nil, apperrors.ErrSinkClosed
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyBatch
	}

	if s.file == nil {
		file, err := os.Create(s.path)
		if err != nil {
			return nil, &apperrors.StorageError{Operation: "create", Path: s.path, Err: err}
		}
		s.file = file
		s.w = csv.NewWriter(file)
		if err := s.w.Write(event.FlatColumns); err != nil {
			return nil, &apperrors.StorageError{Operation: "write", Path: s.path, Err: err}
		}
	}

	for i := range rows {
		if err := s.w.Write(csvRecord(&rows[i])); err != nil {
			return nil, &apperrors.StorageError{Operation: "write", Path: s.path, Err: err}
		}
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return nil, &apperrors.StorageError{Operation: "flush", Path: s.path, Err: err}
	}

	info, err := s.file.Stat()
	if err != nil {
		return nil, &apperrors.StorageError{Operation: "stat", Path: s.path, Err: err}
	}

	return &sink.BatchStats{
		RowCount:  len(rows),
		SizeBytes: info.Size(),
		Path:      s.path,
		Complete:  false,
	}, nil
}

// Close flushes and closes the output file.
func (s *CSVSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return &apperrors.StorageError{Operation: "flush", Path: s.path, Err: err}
	}
	if err := s.file.Close(); err != nil {
		return &apperrors.StorageError{Operation: "close", Path: s.path, Err: err}
	}
	s.logger.Info("closed csv output", "path", s.path)
	return nil
}

// Format returns the output format.
func (s *CSVSink) Format() event.FileFormat {
	return event.FormatCSV
}

// csvRecord renders one row in FlatColumns order. Null columns become
// empty cells.
func csvRecord(row *event.FlatEvent) []string {
	return []string{
		strconv.FormatInt(row.MatchID, 10),
		row.EventID,
		strconv.FormatInt(row.IndexInFile, 10),
		cellInt(row.Period),
		cellStr(row.Timestamp),
		cellInt(row.Minute),
		cellInt(row.Second),
		cellStr(row.EventType),
		cellInt(row.Possession),
		cellStr(row.PlayPattern),
		cellInt(row.TeamID),
		cellInt(row.PlayerID),
		cellFloat(row.X),
		cellFloat(row.Y),
		cellFloat(row.EndX),
		cellFloat(row.EndY),
		cellFloat(row.PassLength),
		cellStr(row.PassHeight),
		cellStr(row.PassOutcome),
		cellBool(row.PassCross),
		cellBool(row.PassSwitch),
		cellStr(row.ShotOutcome),
		cellStr(row.ShotBodyPart),
		cellStr(row.ShotType),
		cellFloat(row.ShotXG),
		cellFloat(row.CarryLength),
		cellStr(row.DuelType),
		cellBool(row.FoulCommitted),
		cellBool(row.FoulWon),
	}
}

func cellStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cellInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func cellFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func cellBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

// partName builds the numbered part file name shared by the columnar
// sinks: {base}_part{NNN}{ext}, zero-padded, sequential from 0.
func partName(baseName string, part int, ext string) string {
	return fmt.Sprintf("%s_part%03d%s", baseName, part, ext)
}
