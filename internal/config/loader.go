package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// queryVarPrefix marks environment variables exposed to SQL templates.
const queryVarPrefix = "CH_QUERY_VAR_"

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// QueryVariables extracts all environment variables with the CH_QUERY_VAR_
// prefix. The returned map keys have the prefix removed; they are referenced
// in SQL templates as {{NAME}}.
//
// Values whose names suggest secrets are redacted in the log output but kept
// intact in the returned map.
func QueryVariables(logger *slog.Logger) map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, queryVarPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, queryVarPrefix)
		vars[name] = value

		if logger != nil {
			if isSensitiveName(key) {
				logger.Info("loaded query variable", "name", name, "value", "***REDACTED***")
			} else {
				logger.Info("loaded query variable", "name", name, "value", value)
			}
		}
	}
	return vars
}

// isSensitiveName reports whether an environment variable name looks like it
// carries a secret.
func isSensitiveName(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range []string{"SECRET", "PASSWORD", "KEY", "TOKEN"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// ClickHouse validation
	if c.ClickHouse.Host == "" {
		errs = append(errs, "CH_HOST is required")
	}
	if c.ClickHouse.Port <= 0 || c.ClickHouse.Port > 65535 {
		errs = append(errs, fmt.Sprintf("CH_PORT (%d) must be 1-65535", c.ClickHouse.Port))
	}
	if c.ClickHouse.DialTimeout <= 0 {
		errs = append(errs, "CH_DIAL_TIMEOUT must be positive")
	}

	// Ingest validation
	if c.Ingest.RowCap <= 0 {
		errs = append(errs, "INGEST_ROW_CAP must be positive")
	}

	// Drive validation
	if c.Drive.ChunkSize <= 0 {
		errs = append(errs, "DRIVE_CHUNK_SIZE must be positive")
	}

	// Dune validation
	if c.Dune.Timeout <= 0 {
		errs = append(errs, "DUNE_TIMEOUT must be positive")
	}
	if c.Dune.PollInterval <= 0 {
		errs = append(errs, "DUNE_POLL_INTERVAL must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("ClickHouse: {Host: %q, Port: %d, Database: %q, Secure: %v}, ",
		c.ClickHouse.Host, c.ClickHouse.Port, c.ClickHouse.Database, c.ClickHouse.Secure))
	b.WriteString(fmt.Sprintf("ObjectStore: {Endpoint: %q, Bucket: %q, Region: %q}, ",
		c.ObjectStore.Endpoint, c.ObjectStore.Bucket, c.ObjectStore.Region))
	b.WriteString(fmt.Sprintf("Ingest: {RowCap: %d, SkipTableCreation: %v, Optimize: %v}, ",
		c.Ingest.RowCap, c.Ingest.SkipTableCreation, c.Ingest.Optimize))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
