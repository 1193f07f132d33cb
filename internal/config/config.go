package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "FEED_HARVESTER_CONFIG"
	catalogPathEnv = "FEED_HARVESTER_CATALOG"
	logLevelEnv    = "FEED_HARVESTER_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Resilience ResilienceConfig `yaml:"resilience"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Verbose bool   `yaml:"verbose"`
}

// CatalogConfig points at the externally managed source catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig sizes the worker pool and retry policy for one batch.
type IngestConfig struct {
	WorkersPerSource int    `yaml:"workersPerSource"`
	MaxConcurrency   int    `yaml:"maxConcurrency"`
	PerSourceCount   int    `yaml:"perSourceCount"`
	MaxRetries       int    `yaml:"maxRetries"`
	RetryBackoff     string `yaml:"retryBackoff"`
}

// RetryBackoffDuration parses the configured backoff, zero when unset or bad.
func (c IngestConfig) RetryBackoffDuration() time.Duration {
	return parseDuration(c.RetryBackoff)
}

// ResilienceConfig seeds the per-source protection defaults; catalog
// descriptors override them source by source.
type ResilienceConfig struct {
	FailureThreshold int     `yaml:"failureThreshold"`
	SuccessThreshold int     `yaml:"successThreshold"`
	OpenTimeout      string  `yaml:"openTimeout"`
	Rate             float64 `yaml:"rate"`
	Burst            int     `yaml:"burst"`
	TimeoutFloor     string  `yaml:"timeoutFloor"`
	DefaultTimeout   string  `yaml:"defaultTimeout"`
}

// OpenTimeoutDuration parses the breaker cooldown, zero when unset or bad.
func (c ResilienceConfig) OpenTimeoutDuration() time.Duration {
	return parseDuration(c.OpenTimeout)
}

// TimeoutFloorDuration parses the deadline floor, zero when unset or bad.
func (c ResilienceConfig) TimeoutFloorDuration() time.Duration {
	return parseDuration(c.TimeoutFloor)
}

// DefaultTimeoutDuration parses the cold-start deadline, zero when unset or bad.
func (c ResilienceConfig) DefaultTimeoutDuration() time.Duration {
	return parseDuration(c.DefaultTimeout)
}

// HTTPConfig shapes the shared outbound transport.
type HTTPConfig struct {
	DialTimeout string `yaml:"dialTimeout"`
}

// DialTimeoutDuration parses the dial timeout, zero when unset or bad.
func (c HTTPConfig) DialTimeoutDuration() time.Duration {
	return parseDuration(c.DialTimeout)
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Catalog: CatalogConfig{Path: "catalog.yaml"},
		Ingest: IngestConfig{
			WorkersPerSource: 2,
			MaxConcurrency:   100,
			PerSourceCount:   10,
			MaxRetries:       2,
			RetryBackoff:     "2s",
		},
		Resilience: ResilienceConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			OpenTimeout:      "60s",
			Rate:             2,
			Burst:            5,
			TimeoutFloor:     "5s",
			DefaultTimeout:   "30s",
		},
		HTTP: HTTPConfig{DialTimeout: "10s"},
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(catalogPathEnv); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Verbose {
		base.Logging.Verbose = true
	}

	if override.Catalog.Path != "" {
		base.Catalog.Path = override.Catalog.Path
	}

	if override.Ingest.WorkersPerSource > 0 {
		base.Ingest.WorkersPerSource = override.Ingest.WorkersPerSource
	}
	if override.Ingest.MaxConcurrency > 0 {
		base.Ingest.MaxConcurrency = override.Ingest.MaxConcurrency
	}
	if override.Ingest.PerSourceCount > 0 {
		base.Ingest.PerSourceCount = override.Ingest.PerSourceCount
	}
	if override.Ingest.MaxRetries > 0 {
		base.Ingest.MaxRetries = override.Ingest.MaxRetries
	}
	if override.Ingest.RetryBackoff != "" {
		base.Ingest.RetryBackoff = override.Ingest.RetryBackoff
	}

	if override.Resilience.FailureThreshold > 0 {
		base.Resilience.FailureThreshold = override.Resilience.FailureThreshold
	}
	if override.Resilience.SuccessThreshold > 0 {
		base.Resilience.SuccessThreshold = override.Resilience.SuccessThreshold
	}
	if override.Resilience.OpenTimeout != "" {
		base.Resilience.OpenTimeout = override.Resilience.OpenTimeout
	}
	if override.Resilience.Rate > 0 {
		base.Resilience.Rate = override.Resilience.Rate
	}
	if override.Resilience.Burst > 0 {
		base.Resilience.Burst = override.Resilience.Burst
	}
	if override.Resilience.TimeoutFloor != "" {
		base.Resilience.TimeoutFloor = override.Resilience.TimeoutFloor
	}
	if override.Resilience.DefaultTimeout != "" {
		base.Resilience.DefaultTimeout = override.Resilience.DefaultTimeout
	}

	if override.HTTP.DialTimeout != "" {
		base.HTTP.DialTimeout = override.HTTP.DialTimeout
	}

	return base
}

func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: bad duration %q, using default", raw)
		return 0
	}
	return d
}
