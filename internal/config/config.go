// Package config provides centralized configuration management for the runner.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all runner configuration.
// All settings can be configured via environment variables.
type Config struct {
	ClickHouse  ClickHouseConfig
	ObjectStore ObjectStoreConfig
	Drive       DriveConfig
	Dune        DuneConfig
	Ingest      IngestConfig
	Logging     LoggingConfig
}

// ClickHouseConfig holds destination store connection settings.
type ClickHouseConfig struct {
	// Host is the ClickHouse server host (default: localhost)
	Host string `env:"CH_HOST" default:"localhost"`

	// Port is the native protocol port (default: 9000)
	Port int `env:"CH_PORT" default:"9000"`

	// User is the ClickHouse user (default: default)
	User string `env:"CH_USER" default:"default"`

	// Password is the ClickHouse password
	Password string `env:"CH_PASSWORD"`

	// Database is the database to connect to (default: default)
	Database string `env:"CH_DB" envAlt:"CH_DATABASE" default:"default"`

	// Secure enables TLS for the connection (default: false)
	Secure bool `env:"CH_SECURE" default:"false"`

	// Verify controls TLS certificate verification (default: true)
	Verify bool `env:"CH_VERIFY" default:"true"`

	// DialTimeout is the connection establishment timeout (default: 10s)
	DialTimeout time.Duration `env:"CH_DIAL_TIMEOUT" default:"10s"`
}

// ObjectStoreConfig holds S3-compatible object store settings.
type ObjectStoreConfig struct {
	// Endpoint is the S3 endpoint host[:port], e.g. s3.amazonaws.com
	Endpoint string `env:"S3_ENDPOINT" default:"s3.amazonaws.com"`

	// Bucket is the bucket holding source files
	Bucket string `env:"S3_BUCKET"`

	// AccessKey and SecretKey are static credentials
	AccessKey string `env:"S3_ACCESS_KEY" envAlt:"AWS_ACCESS_KEY_ID"`
	SecretKey string `env:"S3_SECRET_KEY" envAlt:"AWS_SECRET_ACCESS_KEY"`

	// Region is the bucket region (default: us-east-1)
	Region string `env:"S3_REGION" default:"us-east-1"`

	// UseSSL enables HTTPS to the endpoint (default: true)
	UseSSL bool `env:"S3_USE_SSL" default:"true"`
}

// DriveConfig holds settings for the remote file-download API.
type DriveConfig struct {
	// BaseURL is the API root, e.g. https://www.googleapis.com/drive/v3
	BaseURL string `env:"DRIVE_BASE_URL" default:"https://www.googleapis.com/drive/v3"`

	// Token is the bearer token for API calls
	Token string `env:"DRIVE_TOKEN"`

	// ChunkSize is the download chunk size in bytes (default: 1MiB)
	ChunkSize int64 `env:"DRIVE_CHUNK_SIZE" default:"1048576"`
}

// DuneConfig holds settings for the remote query-execution API.
type DuneConfig struct {
	// BaseURL is the API root (default: https://api.dune.com/api/v1)
	BaseURL string `env:"DUNE_BASE_URL" default:"https://api.dune.com/api/v1"`

	// APIKey authenticates requests; CH_QUERY_VAR_DUNE_API_KEY is the
	// preferred spelling so the key is also visible to SQL templates.
	APIKey string `env:"CH_QUERY_VAR_DUNE_API_KEY" envAlt:"DUNE_API_KEY"`

	// Timeout bounds how long to wait for one remote execution (default: 15m)
	Timeout time.Duration `env:"DUNE_TIMEOUT" default:"15m"`

	// PollInterval is the status poll cadence (default: 2s)
	PollInterval time.Duration `env:"DUNE_POLL_INTERVAL" default:"2s"`
}

// IngestConfig holds ingestion pipeline tunables.
type IngestConfig struct {
	// RowCap is the maximum number of data rows accepted per source file
	// (default: 1000000). Rows beyond the cap are dropped with a warning.
	RowCap int `env:"INGEST_ROW_CAP" default:"1000000"`

	// SkipTableCreation skips the destination-table creation step
	SkipTableCreation bool `env:"INGEST_SKIP_TABLE_CREATION" default:"false"`

	// Optimize runs a best-effort OPTIMIZE after a successful run
	Optimize bool `env:"INGEST_OPTIMIZE" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level controls log verbosity: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format selects the output format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
