// Package config loads portfolio-edge settings from the environment.
//
// Upstream credentials are read once at startup but only validated per
// request: a missing credential turns every GET into a configuration error
// without stopping the process, so the operational endpoints stay up.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names for upstream credentials.
const (
	EnvBehanceID    = "CONFIG_BEHANCE_ID"
	EnvBehanceKey   = "CONFIG_BEHANCE_KEY"
	EnvBehanceProxy = "CONFIG_BEHANCE_PROXY"
	EnvDribbbleKey  = "CONFIG_DRIBBBLE_KEY"
	EnvYouTubeID    = "CONFIG_YOUTUBE_ID"
)

// Defaults for runtime settings.
const (
	DefaultPort            = "8080"
	DefaultMetricsAddr     = ":9090"
	DefaultRedisURL        = "localhost:6379"
	DefaultCacheTTL        = 24 * time.Hour
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultDribbbleURL     = "https://api.dribbble.com/v2/user/shots"
	DefaultYouTubeFeedURL  = "https://www.youtube.com/feeds/videos.xml"

	// DefaultUserAgent mimics a desktop browser; some upstreams reject bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; Win11) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.5993.90 Safari/537.36"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Credentials are the five values every aggregate request needs.
type Credentials struct {
	BehanceID    string
	BehanceKey   string
	BehanceProxy string
	DribbbleKey  string
	YouTubeID    string
}

// MissingError reports credentials that are absent.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing environment variable(s): %s", strings.Join(e.Names, ", "))
}

// Missing returns the environment names of every empty credential, in a
// stable order.
func (c Credentials) Missing() []string {
	var names []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			names = append(names, name)
		}
	}
	check(EnvBehanceID, c.BehanceID)
	check(EnvBehanceKey, c.BehanceKey)
	check(EnvBehanceProxy, c.BehanceProxy)
	check(EnvDribbbleKey, c.DribbbleKey)
	check(EnvYouTubeID, c.YouTubeID)
	return names
}

// Validate returns a *MissingError when any credential is absent.
func (c Credentials) Validate() error {
	if names := c.Missing(); len(names) > 0 {
		return &MissingError{Names: names}
	}
	return nil
}

// Config holds all settings for the binary.
type Config struct {
	Credentials Credentials

	// Port is the public listener port.
	Port string
	// MetricsAddr serves /metrics, /health and /ready.
	MetricsAddr string

	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration

	UpstreamTimeout time.Duration
	UserAgent       string
	DribbbleURL     string
	YouTubeFeedURL  string

	// FailurePolicy is "total" (default) or "never".
	FailurePolicy string

	LogLevel  string
	LogPretty bool
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	ttl, err := getEnvDuration("CACHE_TTL", DefaultCacheTTL)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout)
	if err != nil {
		return nil, err
	}
	pretty, err := getEnvBool("LOG_PRETTY", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Credentials: Credentials{
			BehanceID:    os.Getenv(EnvBehanceID),
			BehanceKey:   os.Getenv(EnvBehanceKey),
			BehanceProxy: os.Getenv(EnvBehanceProxy),
			DribbbleKey:  os.Getenv(EnvDribbbleKey),
			YouTubeID:    os.Getenv(EnvYouTubeID),
		},
		Port:            getEnv("PORT", DefaultPort),
		MetricsAddr:     getEnv("METRICS_ADDR", DefaultMetricsAddr),
		CacheBackend:    strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
		RedisURL:        getEnv("REDIS_URL", DefaultRedisURL),
		CacheTTL:        ttl,
		UpstreamTimeout: timeout,
		UserAgent:       getEnv("USER_AGENT", DefaultUserAgent),
		DribbbleURL:     getEnv("DRIBBBLE_API_URL", DefaultDribbbleURL),
		YouTubeFeedURL:  getEnv("YOUTUBE_FEED_URL", DefaultYouTubeFeedURL),
		FailurePolicy:   strings.ToLower(getEnv("FAILURE_POLICY", "total")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       pretty,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the runtime settings. Credentials are not checked here.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port cannot be empty")
	}
	if c.CacheBackend != BackendMemory && c.CacheBackend != BackendRedis {
		return fmt.Errorf("cache backend must be %q or %q (got %q)", BackendMemory, BackendRedis, c.CacheBackend)
	}
	if c.CacheBackend == BackendRedis && c.RedisURL == "" {
		return errors.New("redis url cannot be empty when using redis cache")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive (got %s)", c.CacheTTL)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive (got %s)", c.UpstreamTimeout)
	}
	if c.FailurePolicy != "total" && c.FailurePolicy != "never" {
		return fmt.Errorf("failure policy must be \"total\" or \"never\" (got %q)", c.FailurePolicy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
