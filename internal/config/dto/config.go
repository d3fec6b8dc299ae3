// Package dto defines the configuration structures.
package dto

// ApplicationConfig is the root configuration structure.
type ApplicationConfig struct {
	Application   ApplicationInfo     `mapstructure:"application"`
	Data          DataConfig          `mapstructure:"data"`
	Store         StoreConfig         `mapstructure:"store"`
	Export        ExportConfig        `mapstructure:"export"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ApplicationInfo contains application metadata.
type ApplicationInfo struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// DataConfig locates the source payload directories. Match files live at
// {matches_dir}/{competition_id}/{season_id}.json, event files at
// {events_dir}/{match_id}.json.
type DataConfig struct {
	MatchesDir string `mapstructure:"matches_dir"`
	EventsDir  string `mapstructure:"events_dir"`
}

// StoreConfig locates the SQLite raw store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ExportConfig contains export pipeline configuration. BatchSize controls
// output granularity; FetchPageSize only bounds query-side memory and
// never changes output contents.
type ExportConfig struct {
	OutDir        string `mapstructure:"out_dir"`
	Format        string `mapstructure:"format"`
	Compression   string `mapstructure:"compression"`
	BatchSize     int    `mapstructure:"batch_size"`
	FetchPageSize int    `mapstructure:"fetch_page_size"`
}

// StorageConfig selects where completed output files end up.
type StorageConfig struct {
	Backend string   `mapstructure:"backend"`
	S3      S3Config `mapstructure:"s3"`
}

// S3Config contains AWS S3 configuration for the s3 backend.
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	BasePath     string `mapstructure:"base_path"`
}

// ObservabilityConfig contains logging and metrics configuration.
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig contains the optional metrics/health endpoint
// configuration for long-running ingests and exports.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}
