package config

import (
	"path/filepath"
	"strings"
	"time"
)

func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:          120 * time.Second,
		UserAgent:        "bingads-extractor/1.0",
		RateLimit:        10,
		RateBurst:        5,
		BreakerFailures:  5,
		BreakerOpenDelay: 30 * time.Second,
	}
}

// DefaultRetryConfig allows five attempts on connection errors, the limit the
// remote API tolerates before a job is considered lost.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Interval:        time.Second,
		DownloadTimeout: 60 * time.Second,
	}
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Adapter:    "filesystem",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		S3:         S3Config{Region: "us-east-1"},
	}
}

func DefaultStateConfig() StateConfig {
	return StateConfig{
		Backend:   "file",
		KeyPrefix: "bingads-extractor",
		Table:     "extractor_state",
	}
}

// DefaultConfig returns a complete configuration, useful in tests and as a
// starting point for overrides.
func DefaultConfig() *Config {
	cfg := &Config{
		Environment: "local",
		ServiceName: "bingads-extractor",
		Version:     "1.0.0",
		LogLevel:    "info",
		DataDir:     "/data",
		HTTP:        DefaultHTTPConfig(),
		Retry:       DefaultRetryConfig(),
		Polling:     DefaultPollingConfig(),
		Storage:     DefaultStorageConfig(),
		State:       DefaultStateConfig(),
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills values derived from other settings.
func (c *Config) applyDefaults() {
	c.Storage.Adapter = strings.ToLower(strings.TrimSpace(c.Storage.Adapter))
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))

	if c.Storage.Adapter == "filesystem" && c.Storage.BucketOrPath == "" {
		c.Storage.BucketOrPath = c.TablesDir()
	}

	if c.IsProduction() {
		if c.Retry.MaxAttempts < 5 {
			c.Retry.MaxAttempts = 5
		}
		if strings.EqualFold(c.LogLevel, "debug") {
			c.LogLevel = "info"
		}
	}
}

// TablesDir is the host's output table directory under DataDir.
func (c *Config) TablesDir() string {
	return filepath.Join(c.DataDir, "out", "tables")
}

// ConfigFile is the path of the job configuration document.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "config.json")
}
