package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"market-reports/internal/misoadapter"
	reports "market-reports/internal/reports/domain"
	"market-reports/internal/reports/infrastructure/filesystem"
)

// PathEnv names the environment variable holding the YAML config path.
const PathEnv = "MARKET_REPORTS_CONFIG"

// Cache backends.
const (
	BackendFilesystem = "filesystem"
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendS3         = "s3"
)

// Config is the process configuration.
type Config struct {
	BaseURL          string            `yaml:"base_url" envconfig:"MARKET_REPORTS_BASE_URL"`
	UserAgent        string            `yaml:"user_agent" envconfig:"MARKET_REPORTS_USER_AGENT"`
	RequestTimeout   time.Duration     `yaml:"request_timeout" envconfig:"MARKET_REPORTS_REQUEST_TIMEOUT"`
	CacheBackend     string            `yaml:"cache_backend" envconfig:"MARKET_REPORTS_CACHE"`
	CacheDir         string            `yaml:"cache_dir" envconfig:"MARKET_REPORTS_CACHE_DIR"`
	CacheTable       string            `yaml:"cache_table" envconfig:"MARKET_REPORTS_CACHE_TABLE"`
	DatabaseURL      string            `yaml:"database_url" envconfig:"DATABASE_URL"`
	S3Bucket         string            `yaml:"s3_bucket" envconfig:"MARKET_REPORTS_S3_BUCKET"`
	S3Prefix         string            `yaml:"s3_prefix" envconfig:"MARKET_REPORTS_S3_PREFIX"`
	S3Region         string            `yaml:"s3_region" envconfig:"AWS_REGION"`
	S3Endpoint       string            `yaml:"s3_endpoint" envconfig:"MARKET_REPORTS_S3_ENDPOINT"`
	HTTPAddr         string            `yaml:"http_addr" envconfig:"HTTP_ADDR"`
	JWTSecret        string            `yaml:"jwt_secret" envconfig:"AUTH_JWT_SECRET"`
	StrictConverters bool              `yaml:"strict_converters" envconfig:"MARKET_REPORTS_STRICT_CONVERTERS"`
	Datasets         []reports.Dataset `yaml:"datasets" ignored:"true"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:        misoadapter.DefaultBaseURL,
		RequestTimeout: 60 * time.Second,
		CacheBackend:   BackendFilesystem,
		CacheDir:       filesystem.DefaultDir,
		CacheTable:     "report_cache",
		S3Region:       "us-east-1",
		HTTPAddr:       ":8080",
	}
}

// Override adjusts the configuration after the file and environment layers,
// before validation.
type Override func(*Config)

// WithCacheBackend selects the cache backend. Empty keeps the loaded value.
func WithCacheBackend(name string) Override {
	return func(c *Config) {
		if name != "" {
			c.CacheBackend = name
		}
	}
}

// WithCacheDir sets the filesystem cache directory. Empty keeps the loaded value.
func WithCacheDir(dir string) Override {
	return func(c *Config) {
		if dir != "" {
			c.CacheDir = dir
		}
	}
}

// Load builds the configuration from defaults, an optional YAML file, the
// environment and then overrides, in that order. An empty path falls back
// to PathEnv.
func Load(path string, overrides ...Override) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}
	for _, override := range overrides {
		override(&cfg)
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks required settings for the selected backend.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base url required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request timeout must be positive")
	}
	switch c.CacheBackend {
	case BackendFilesystem:
		if c.CacheDir == "" {
			return errors.New("config: cache dir required")
		}
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL required for postgres cache")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return errors.New("config: s3 bucket required for s3 cache")
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.CacheBackend)
	}
	for _, ds := range c.Datasets {
		if ds.ID == "" {
			return errors.New("config: dataset override without id")
		}
		if ds.Kind != "" && !ds.Kind.IsValid() {
			return fmt.Errorf("config: dataset %s: unknown kind %q", ds.ID, ds.Kind)
		}
	}
	return nil
}

// Catalog returns the built-in datasets with configured overrides applied.
func (c Config) Catalog() reports.Catalog {
	return reports.DefaultCatalog().Merge(c.Datasets)
}
