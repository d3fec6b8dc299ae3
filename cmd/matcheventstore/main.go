package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jittakal/matcheventstore/internal/config"
	"github.com/jittakal/matcheventstore/internal/config/dto"
	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/internal/export"
	"github.com/jittakal/matcheventstore/internal/ingest"
	"github.com/jittakal/matcheventstore/internal/observability"
	"github.com/jittakal/matcheventstore/internal/report"
	"github.com/jittakal/matcheventstore/internal/server"
	"github.com/jittakal/matcheventstore/internal/sink"
	"github.com/jittakal/matcheventstore/internal/storage"
	"github.com/jittakal/matcheventstore/internal/store"
)

const usage = `Usage: matcheventstore <command> [flags]

Commands:
  ingest    load nested match and event source files into the store
  export    write one league's events as flat rows
  leagues   list stored league/season pairs
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "ingest":
		return runIngest(args[1:])
	case "export":
		return runExport(args[1:])
	case "leagues":
		return runLeagues(args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// loadConfig resolves the config path (flag > CONFIG_PATH env > default)
// and loads it.
func loadConfig(flagPath string) (*dto.ApplicationConfig, error) {
	path := flagPath
	if path == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			path = envPath
		} else {
			path = "config/application.yaml"
		}
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *dto.ApplicationConfig) *slog.Logger {
	return observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	})
}

// startMetricsServer starts the config-gated metrics endpoint and
// returns its shutdown function.
func startMetricsServer(cfg *dto.ApplicationConfig, registry *prometheus.Registry, logger *slog.Logger) func() {
	if !cfg.Observability.Metrics.Enabled {
		return func() {}
	}
	srv := server.New(cfg.Observability.Metrics.Port, cfg.Observability.Metrics.Path, registry, logger)
	srv.Start()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func runIngest(args []string) error {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := flags.String("config", "", "path to configuration file")
	matchesDir := flags.String("matches-dir", "", "override matches source directory")
	eventsDir := flags.String("events-dir", "", "override events source directory")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *matchesDir != "" {
		cfg.Data.MatchesDir = *matchesDir
	}
	if *eventsDir != "" {
		cfg.Data.EventsDir = *eventsDir
	}

	logger := newLogger(cfg)
	logger.Info("starting match event store",
		"command", "ingest",
		"store_path", cfg.Store.Path,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	stopMetrics := startMetricsServer(cfg, registry, logger)
	defer stopMetrics()

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	ingester := ingest.New(st, cfg.Data.MatchesDir, cfg.Data.EventsDir, logger, metrics)
	summary, err := ingester.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d match files: %d matches, %d events (%d event files).\n",
		summary.MatchFiles, summary.Matches, summary.Events, summary.EventFiles)
	return nil
}

func runExport(args []string) error {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := flags.String("config", "", "path to configuration file")
	competitionID := flags.Int64("competition-id", 0, "competition id to export (required)")
	seasonID := flags.Int64("season-id", 0, "season id to export (required)")
	playerList := flags.String("players", "", "comma-separated player ids to filter on")
	outDir := flags.String("out-dir", "", "override output directory")
	format := flags.String("format", "", "override output format (auto, csv, parquet, avro)")
	batchSize := flags.Int("batch-size", 0, "override rows per output batch")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *competitionID <= 0 || *seasonID <= 0 {
		return errors.New("export requires -competition-id and -season-id")
	}

	players, err := parsePlayers(*playerList)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.Export.OutDir = *outDir
	}
	if *format != "" {
		cfg.Export.Format = *format
	}
	if *batchSize > 0 {
		cfg.Export.BatchSize = *batchSize
	}

	logger := newLogger(cfg)
	logger.Info("starting match event store",
		"command", "export",
		"store_path", cfg.Store.Path,
	)

	// Export never creates the store; a missing file means ingest has
	// not run.
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return fmt.Errorf("%w: %s (run ingest first)", apperrors.ErrStoreMissing, cfg.Store.Path)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	stopMetrics := startMetricsServer(cfg, registry, logger)
	defer stopMetrics()

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	resolved, err := sink.ResolveFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	destination, err := newDestination(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	exporter := export.New(
		st,
		sink.NewFactory(resolved, cfg.Export.Compression, logger),
		destination,
		logger,
		metrics,
	)
	summary, err := exporter.Run(ctx, export.Options{
		CompetitionID: *competitionID,
		SeasonID:      *seasonID,
		Players:       players,
		OutDir:        cfg.Export.OutDir,
		BaseName:      sink.BaseName(*competitionID, *seasonID),
		BatchSize:     cfg.Export.BatchSize,
		FetchPageSize: cfg.Export.FetchPageSize,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d/%d events from %d matches (%d skipped) in %d batches.\nLast output: %s\n",
		summary.Exported, summary.Total, summary.Matches, summary.Skipped, summary.Batches, summary.OutPath)
	return nil
}

func runLeagues(args []string) error {
	flags := flag.NewFlagSet("leagues", flag.ExitOnError)
	configPath := flags.String("config", "", "path to configuration file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return fmt.Errorf("%w: %s (run ingest first)", apperrors.ErrStoreMissing, cfg.Store.Path)
	}

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := report.Leagues(context.Background(), st)
	if err != nil {
		return err
	}
	return report.Print(os.Stdout, summaries)
}

// newDestination builds the configured output destination.
func newDestination(
	ctx context.Context,
	cfg *dto.ApplicationConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (storage.Destination, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Destination(ctx, cfg.Storage.S3, logger, metrics)
	default:
		return storage.NewFileDestination(logger), nil
	}
}

// parsePlayers parses a comma-separated id list; empty means no filter.
func parsePlayers(list string) ([]int64, error) {
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	players := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid player id %q: %w", part, err)
		}
		players = append(players, id)
	}
	return players, nil
}
