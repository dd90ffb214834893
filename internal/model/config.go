package model

import "time"

// Config holds all runtime configuration.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Scrape ScrapeConfig `yaml:"scrape" mapstructure:"scrape"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Robots RobotsConfig `yaml:"robots" mapstructure:"robots"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls the outbound request layer.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`

	// Proxy overrides HTTP_PROXY/HTTPS_PROXY when set.
	Proxy string `yaml:"proxy" mapstructure:"proxy"`

	// MinDelay/MaxDelay bound the random pause inserted before every
	// request. Kept generous on purpose: review sites rate-limit hard.
	MinDelay time.Duration `yaml:"min_delay" mapstructure:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay" mapstructure:"max_delay"`

	// RequestsPerSecond is the per-domain pacing floor applied on top
	// of the random delay.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ScrapeConfig controls pagination bounds.
type ScrapeConfig struct {
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// CacheConfig controls the per-run page cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// RobotsConfig controls robots.txt compliance checking.
type RobotsConfig struct {
	Respect bool `yaml:"respect" mapstructure:"respect"`
}

// OutputConfig controls reporting behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			MaxBodyBytes:      2_000_000,
			MinDelay:          2 * time.Second,
			MaxDelay:          5 * time.Second,
			RequestsPerSecond: 0.5,
		},
		Scrape: ScrapeConfig{
			MaxPages: 10,
			PageSize: 100,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Robots: RobotsConfig{
			Respect: false,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
