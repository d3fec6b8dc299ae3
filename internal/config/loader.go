// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/jittakal/matcheventstore/internal/config/dto"
)

// Loader handles configuration loading and validation.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from file and environment variables.
// A missing config file is not an error; defaults and env apply.
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	l.setDefaults()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "match-event-store")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Data defaults
	l.v.SetDefault("data.matches_dir", "data/matches")
	l.v.SetDefault("data.events_dir", "data/events")

	// Store defaults
	l.v.SetDefault("store.path", "matchevents.sqlite")

	// Export defaults
	l.v.SetDefault("export.out_dir", "output")
	l.v.SetDefault("export.format", "auto")
	l.v.SetDefault("export.compression", "snappy")
	l.v.SetDefault("export.batch_size", 200000)
	l.v.SetDefault("export.fetch_page_size", 50000)

	// Storage defaults
	l.v.SetDefault("storage.backend", "file")
	l.v.SetDefault("storage.s3.use_path_style", false)

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stdout")
	l.v.SetDefault("observability.metrics.enabled", false)
	l.v.SetDefault("observability.metrics.port", 9090)
	l.v.SetDefault("observability.metrics.path", "/metrics")
}

// Validate validates the configuration.
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	if config.Data.MatchesDir == "" {
		return errors.New("data.matches_dir is required")
	}
	if config.Data.EventsDir == "" {
		return errors.New("data.events_dir is required")
	}
	if config.Store.Path == "" {
		return errors.New("store.path is required")
	}

	switch config.Export.Format {
	case "auto", "csv", "parquet", "avro":
	default:
		return fmt.Errorf("unsupported export format: %s", config.Export.Format)
	}

	if config.Export.BatchSize < 1 {
		return fmt.Errorf("export.batch_size must be positive, got %d", config.Export.BatchSize)
	}
	if config.Export.FetchPageSize < 1 {
		return fmt.Errorf("export.fetch_page_size must be positive, got %d", config.Export.FetchPageSize)
	}

	switch config.Storage.Backend {
	case "file":
	case "s3":
		if config.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for S3 backend")
		}
		if config.Storage.S3.Region == "" {
			return errors.New("storage.s3.region is required for S3 backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", config.Storage.Backend)
	}

	if config.Observability.Metrics.Enabled {
		if config.Observability.Metrics.Port < 1 || config.Observability.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", config.Observability.Metrics.Port)
		}
	}

	return nil
}
