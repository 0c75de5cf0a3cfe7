package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the runtime configuration of the extractor process. It is read
// from the environment; the per-job document (config.json) is parsed separately.
//
// Nested sections are prefixed with their tag, so HTTP.Timeout is read from
// HTTP_TIMEOUT. Where a nested tag names a conventional variable (AWS_REGION,
// REDIS_ADDR) the bare name is honored as a fallback.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"bingads-extractor"`
	Version     string `envconfig:"SERVICE_VERSION" default:"1.0.0"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DataDir is the host-provided working directory holding config.json,
	// in/state.json and the out/ tree.
	DataDir  string `envconfig:"KBC_DATADIR" default:"/data"`
	ConfigID string `envconfig:"KBC_CONFIGID"`

	HTTP    HTTPConfig    `envconfig:"HTTP"`
	Retry   RetryConfig   `envconfig:"RETRY"`
	Polling PollingConfig `envconfig:"POLL"`
	Storage StorageConfig `envconfig:"STORAGE"`
	State   StateConfig   `envconfig:"STATE"`
	Metrics MetricsConfig `envconfig:"METRICS"`
	API     APIConfig     `envconfig:"API"`
}

// HTTPConfig tunes the client used for the advertising API.
type HTTPConfig struct {
	Timeout          time.Duration `envconfig:"TIMEOUT" default:"120s"`
	UserAgent        string        `envconfig:"USER_AGENT" default:"bingads-extractor/1.0"`
	RateLimit        float64       `envconfig:"RATE_LIMIT" default:"10"`
	RateBurst        int           `envconfig:"RATE_BURST" default:"5"`
	BreakerFailures  uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerOpenDelay time.Duration `envconfig:"BREAKER_OPEN_DELAY" default:"30s"`
}

// RetryConfig is the backoff policy applied to transient remote failures.
type RetryConfig struct {
	MaxAttempts       int           `envconfig:"MAX_ATTEMPTS" default:"5"`
	InitialBackoff    time.Duration `envconfig:"INITIAL_BACKOFF" default:"1s"`
	MaxBackoff        time.Duration `envconfig:"MAX_BACKOFF" default:"30s"`
	BackoffMultiplier float64       `envconfig:"BACKOFF_MULTIPLIER" default:"2.0"`
}

// PollingConfig drives the batch loop.
type PollingConfig struct {
	Interval        time.Duration `envconfig:"INTERVAL" default:"1s"`
	DownloadTimeout time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"60s"`
}

// StorageConfig selects where result tables and manifests are published.
type StorageConfig struct {
	// Adapter is one of filesystem, s3 or minio.
	Adapter      string        `envconfig:"ADAPTER" default:"filesystem"`
	BucketOrPath string        `envconfig:"BUCKET_OR_PATH"`
	Prefix       string        `envconfig:"PREFIX"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxRetries   int           `envconfig:"MAX_RETRIES" default:"3"`

	S3    S3Config    `envconfig:"S3"`
	Minio MinioConfig `envconfig:"MINIO"`
}

type S3Config struct {
	Region          string `envconfig:"AWS_REGION" default:"us-east-1"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	// Endpoint points the client at an S3-compatible service such as LocalStack.
	Endpoint string `envconfig:"S3_ENDPOINT"`
}

type MinioConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	Region    string `envconfig:"MINIO_REGION"`
}

// StateConfig selects where the persisted run state lives.
type StateConfig struct {
	// Backend is one of file, redis or postgres.
	Backend       string `envconfig:"BACKEND" default:"file"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	KeyPrefix     string `envconfig:"KEY_PREFIX" default:"bingads-extractor"`
	Table         string `envconfig:"TABLE" default:"extractor_state"`
}

type MetricsConfig struct {
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
}

// APIConfig overrides service endpoints. Empty values use the production or
// sandbox endpoints chosen by the job configuration.
type APIConfig struct {
	TokenURL     string `envconfig:"TOKEN_URL"`
	BulkURL      string `envconfig:"BULK_URL"`
	ReportingURL string `envconfig:"REPORTING_URL"`
	CustomerURL  string `envconfig:"CUSTOMER_URL"`
}

var (
	storageAdapters = map[string]bool{"filesystem": true, "s3": true, "minio": true}
	stateBackends   = map[string]bool{"file": true, "redis": true, "postgres": true}
)

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.ServiceName == "" {
		errs = append(errs, "SERVICE_NAME is required")
	}
	if c.DataDir == "" {
		errs = append(errs, "KBC_DATADIR is required")
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	if c.HTTP.RateLimit <= 0 {
		errs = append(errs, "HTTP_RATE_LIMIT must be positive")
	}
	if c.HTTP.RateBurst < 1 {
		errs = append(errs, "HTTP_RATE_BURST must be at least 1")
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.Retry.BackoffMultiplier < 1.0 {
		errs = append(errs, "RETRY_BACKOFF_MULTIPLIER must be >= 1.0")
	}
	if c.Retry.InitialBackoff > c.Retry.MaxBackoff {
		errs = append(errs, "RETRY_INITIAL_BACKOFF cannot exceed RETRY_MAX_BACKOFF")
	}

	if c.Polling.Interval <= 0 {
		errs = append(errs, "POLL_INTERVAL must be positive")
	}
	if c.Polling.DownloadTimeout <= 0 {
		errs = append(errs, "POLL_DOWNLOAD_TIMEOUT must be positive")
	}

	adapter := strings.ToLower(c.Storage.Adapter)
	if !storageAdapters[adapter] {
		errs = append(errs, fmt.Sprintf("STORAGE_ADAPTER %q is not one of filesystem, s3, minio", c.Storage.Adapter))
	}
	if (adapter == "s3" || adapter == "minio") && c.Storage.BucketOrPath == "" {
		errs = append(errs, "STORAGE_BUCKET_OR_PATH is required for the "+adapter+" adapter")
	}
	if adapter == "minio" && c.Storage.Minio.Endpoint == "" {
		errs = append(errs, "MINIO_ENDPOINT is required for the minio adapter")
	}

	backend := strings.ToLower(c.State.Backend)
	if !stateBackends[backend] {
		errs = append(errs, fmt.Sprintf("STATE_BACKEND %q is not one of file, redis, postgres", c.State.Backend))
	}
	if backend == "redis" && c.State.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required for the redis state backend")
	}
	if backend == "postgres" && c.State.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required for the postgres state backend")
	}
	if backend != "file" && c.ConfigID == "" {
		errs = append(errs, "KBC_CONFIGID is required for the "+backend+" state backend")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsLocal() bool {
	env := strings.ToLower(c.Environment)
	return env == "local" || env == "development" || env == "dev"
}

func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

func (c *Config) IsTest() bool {
	env := strings.ToLower(c.Environment)
	return env == "test" || env == "testing"
}
