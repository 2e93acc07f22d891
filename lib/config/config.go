// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/docstore/lib/compression"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "DOCSTORE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local machines and tests.
	Development Environment = "development"
	// Production is for deployed publishing pipelines.
	Production Environment = "production"
)

// Backend names accepted in storage.backend.
const (
	BackendDatabase = "database"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Config is the master configuration.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Storage selects and configures the backend.
	Storage StorageConfig `yaml:"storage"`

	// Upload tunes the bulk uploader.
	Upload UploadConfig `yaml:"upload"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the sections that can be overridden per
// environment.
type ConfigOverrides struct {
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Upload  *UploadConfig  `yaml:"upload,omitempty"`
}

// StorageConfig selects the backend. Only the section matching
// Backend is used.
type StorageConfig struct {
	// Backend is "database", "postgres", or "s3".
	Backend string `yaml:"backend"`

	Database DatabaseConfig `yaml:"database"`
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
}

// DatabaseConfig configures the SQLite backend.
type DatabaseConfig struct {
	// Path is the database file. Its directory must exist.
	Path string `yaml:"path"`

	// PoolSize is the number of connections. Zero picks a default.
	PoolSize int `yaml:"pool_size"`

	// BusyTimeout is how long a writer waits for the lock, as a Go
	// duration string. Default: 10s
	BusyTimeout string `yaml:"busy_timeout"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	// DSN is a libpq connection string or postgres:// URL.
	DSN string `yaml:"dsn"`

	// MaxConns caps the pgx pool. Zero uses the pgx default.
	MaxConns int32 `yaml:"max_conns"`
}

// S3Config configures the object-store backend. Credentials come from
// the AWS SDK default chain and are not configured here.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`

	// Endpoint overrides the service endpoint for S3-compatible
	// stores (MinIO, Ceph RGW). Empty uses AWS.
	Endpoint string `yaml:"endpoint"`

	// PathStyle addresses objects as endpoint/bucket/key instead of
	// bucket.endpoint/key. Most S3-compatible stores need it.
	PathStyle bool `yaml:"path_style"`
}

// UploadConfig tunes the bulk uploader.
type UploadConfig struct {
	// Concurrency is the maximum number of in-flight writes.
	// Default: 8
	Concurrency int `yaml:"concurrency"`

	// MaxFileSize rejects the batch if any file is larger, in
	// bytes. Zero means unlimited.
	MaxFileSize int64 `yaml:"max_file_size"`

	// TextCompression is the algorithm for textual content: "zstd",
	// "gzip", "lz4", or "none". Default: zstd
	TextCompression string `yaml:"text_compression"`
}

// Default returns the configuration every file is merged into.
func Default() *Config {
	return &Config{
		Environment: Development,
		Storage: StorageConfig{
			Backend: BackendDatabase,
			Database: DatabaseConfig{
				Path:        "${HOME}/.cache/docstore/files.db",
				BusyTimeout: "10s",
			},
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Upload: UploadConfig{
			Concurrency:     8,
			TextCompression: "zstd",
		},
	}
}

// Load loads configuration from the file named by DOCSTORE_CONFIG.
// Fails if the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your docstore config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from path, applies environment
// overrides, and expands variables. It does not validate; call
// [Config.Validate].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonc", ".json":
		// JSON is a subset of YAML, so the yaml tags serve both.
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if storage := overrides.Storage; storage != nil {
		if storage.Backend != "" {
			c.Storage.Backend = storage.Backend
		}
		if storage.Database.Path != "" {
			c.Storage.Database.Path = storage.Database.Path
		}
		if storage.Database.PoolSize != 0 {
			c.Storage.Database.PoolSize = storage.Database.PoolSize
		}
		if storage.Database.BusyTimeout != "" {
			c.Storage.Database.BusyTimeout = storage.Database.BusyTimeout
		}
		if storage.Postgres.DSN != "" {
			c.Storage.Postgres.DSN = storage.Postgres.DSN
		}
		if storage.Postgres.MaxConns != 0 {
			c.Storage.Postgres.MaxConns = storage.Postgres.MaxConns
		}
		if storage.S3.Bucket != "" {
			c.Storage.S3.Bucket = storage.S3.Bucket
		}
		if storage.S3.Region != "" {
			c.Storage.S3.Region = storage.S3.Region
		}
		if storage.S3.Endpoint != "" {
			c.Storage.S3.Endpoint = storage.S3.Endpoint
		}
		// PathStyle is a bool: an override s3 section always sets it.
		if storage.S3 != (S3Config{}) {
			c.Storage.S3.PathStyle = storage.S3.PathStyle
		}
	}

	if upload := overrides.Upload; upload != nil {
		if upload.Concurrency != 0 {
			c.Upload.Concurrency = upload.Concurrency
		}
		if upload.MaxFileSize != 0 {
			c.Upload.MaxFileSize = upload.MaxFileSize
		}
		if upload.TextCompression != "" {
			c.Upload.TextCompression = upload.TextCompression
		}
	}
}

func (c *Config) expandVariables() {
	c.Storage.Database.Path = expandVars(c.Storage.Database.Path)
	c.Storage.Postgres.DSN = expandVars(c.Storage.Postgres.DSN)
	c.Storage.S3.Endpoint = expandVars(c.Storage.S3.Endpoint)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// BusyTimeoutDuration parses BusyTimeout. Empty means zero (the
// pool's default).
func (d DatabaseConfig) BusyTimeoutDuration() (time.Duration, error) {
	if d.BusyTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(d.BusyTimeout)
}

// CompressionPolicy builds the upload compression policy.
func (c *Config) CompressionPolicy() (compression.Policy, error) {
	policy := compression.DefaultPolicy()
	if c.Upload.TextCompression == "" {
		return policy, nil
	}
	tag, err := compression.ParseTag(c.Upload.TextCompression)
	if err != nil {
		return compression.Policy{}, fmt.Errorf("upload.text_compression: %w", err)
	}
	policy.Text = tag
	return policy, nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	switch c.Storage.Backend {
	case BackendDatabase:
		if c.Storage.Database.Path == "" {
			errs = append(errs, fmt.Errorf("storage.database.path is required"))
		}
		if _, err := c.Storage.Database.BusyTimeoutDuration(); err != nil {
			errs = append(errs, fmt.Errorf("storage.database.busy_timeout: %w", err))
		}
		if c.Environment == Production {
			errs = append(errs, fmt.Errorf("storage.backend %q is not allowed in production; use postgres or s3", BackendDatabase))
		}
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn is required"))
		}
		if c.Storage.Postgres.MaxConns < 0 {
			errs = append(errs, fmt.Errorf("storage.postgres.max_conns must not be negative"))
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.s3.bucket is required"))
		}
		if c.Storage.S3.Region == "" {
			errs = append(errs, fmt.Errorf("storage.s3.region is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be one of: %v",
			[]string{BackendDatabase, BackendPostgres, BackendS3}))
	}

	if c.Upload.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("upload.concurrency must be at least 1"))
	}
	if c.Upload.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("upload.max_file_size must not be negative"))
	}
	if _, err := c.CompressionPolicy(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
