package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds the application configuration
type Config struct {
	Port              string        // Service port
	FeedURL           string        // Upstream RSS feed
	FeedPath          string        // Extra route serving the feed besides "/"
	MaxItems          int           // Extraction cap
	CacheTTL          time.Duration // Cache-Control max-age and edge cache lifetime
	CacheBackend      string        // memory or redis
	CacheMaxEntries   int           // Memory cache capacity
	RedisURL          string        // Redis backend URL
	CacheKeyPrefix    string        // Redis key prefix
	CacheWriteTimeout time.Duration // Deadline for one background cache write
	FetchTimeout      time.Duration // Origin client timeout, 0 means none
	MaxFeedBytes      int64         // Origin body cap
	Extractor         string        // pattern or structural
	RateLimitRPM      int           // Per-IP requests per minute, 0 disables
	MetricsEnabled    bool          // Expose /metrics
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		Port:           getEnv("PORT", "8787"),
		FeedURL:        getEnv("FEED_URL", "https://binarypaths.substack.com/feed"),
		FeedPath:       getEnv("FEED_PATH", "/feed"),
		CacheBackend:   strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheKeyPrefix: getEnv("CACHE_KEY_PREFIX", "feed-proxy:"),
		Extractor:      strings.ToLower(getEnv("EXTRACTOR", "pattern")),
	}

	var err error
	if config.MaxItems, err = getInt("MAX_ITEMS", 5); err != nil {
		return nil, err
	}
	if config.CacheMaxEntries, err = getInt("CACHE_MAX_ENTRIES", 1024); err != nil {
		return nil, err
	}
	if config.RateLimitRPM, err = getInt("RATE_LIMIT_RPM", 120); err != nil {
		return nil, err
	}
	maxBytes, err := getInt("MAX_FEED_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	config.MaxFeedBytes = int64(maxBytes)

	if config.CacheTTL, err = getDuration("CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if config.CacheWriteTimeout, err = getDuration("CACHE_WRITE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if config.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 0); err != nil {
		return nil, err
	}

	metricsEnabled := getEnv("METRICS_ENABLED", "true")
	if config.MetricsEnabled, err = strconv.ParseBool(metricsEnabled); err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED format: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	u, err := url.Parse(c.FeedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("FEED_URL must be an absolute http(s) URL")
	}

	if !strings.HasPrefix(c.FeedPath, "/") {
		return fmt.Errorf("FEED_PATH must start with /")
	}

	if c.MaxItems <= 0 {
		return fmt.Errorf("MAX_ITEMS must be positive")
	}

	if c.CacheTTL < time.Second {
		return fmt.Errorf("CACHE_TTL must be at least 1s")
	}

	switch c.CacheBackend {
	case CacheBackendMemory:
		if c.CacheMaxEntries <= 0 {
			return fmt.Errorf("CACHE_MAX_ENTRIES must be positive")
		}
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL cannot be empty when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.CacheWriteTimeout <= 0 {
		return fmt.Errorf("CACHE_WRITE_TIMEOUT must be positive")
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("FETCH_TIMEOUT cannot be negative")
	}

	if c.MaxFeedBytes < 0 {
		return fmt.Errorf("MAX_FEED_BYTES cannot be negative")
	}

	if c.RateLimitRPM < 0 {
		return fmt.Errorf("RATE_LIMIT_RPM cannot be negative")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return d, nil
}
