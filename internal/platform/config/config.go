// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Backend names accepted by the progress and star stores.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Content  ContentConfig
	Tracking TrackingConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// ContentConfig holds settings for the lesson and module source.
type ContentConfig struct {
	Path             string
	Strict           bool
	FetchConcurrency int
}

// TrackingConfig selects where answer progress and stars are kept.
type TrackingConfig struct {
	ProgressBackend string // "memory" or "postgres"
	StarsBackend    string // "memory" or "redis"
	StarsKey        string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings.
type CacheConfig struct {
	URL string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LEARN_SERVER_PORT", 8080),
			Host: envStr("LEARN_SERVER_HOST", "0.0.0.0"),
		},
		Content: ContentConfig{
			Path:             envStr("LEARN_CONTENT_PATH", "./content"),
			Strict:           envBool("LEARN_CONTENT_STRICT", true),
			FetchConcurrency: envInt("LEARN_CONTENT_FETCH_CONCURRENCY", 4),
		},
		Tracking: TrackingConfig{
			ProgressBackend: strings.ToLower(envStr("LEARN_PROGRESS_BACKEND", BackendMemory)),
			StarsBackend:    strings.ToLower(envStr("LEARN_STARS_BACKEND", BackendMemory)),
			StarsKey:        envStr("LEARN_STARS_KEY", "learn:stars"),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 2),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", "redis://localhost:6379"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envStr("LEARN_LOG_LEVEL", "info")),
			Format: strings.ToLower(envStr("LEARN_LOG_FORMAT", "json")),
		},
	}

	return cfg, nil
}

// Validate checks that the selected backends are known and configured.
func (c *Config) Validate() error {
	switch c.Tracking.ProgressBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("LEARN_DATABASE_URL is required for the postgres progress backend")
		}
	default:
		return fmt.Errorf("LEARN_PROGRESS_BACKEND must be 'memory' or 'postgres', got %q", c.Tracking.ProgressBackend)
	}

	switch c.Tracking.StarsBackend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.URL == "" {
			return fmt.Errorf("LEARN_CACHE_URL is required for the redis stars backend")
		}
	default:
		return fmt.Errorf("LEARN_STARS_BACKEND must be 'memory' or 'redis', got %q", c.Tracking.StarsBackend)
	}

	if c.Content.FetchConcurrency < 1 {
		return fmt.Errorf("LEARN_CONTENT_FETCH_CONCURRENCY must be positive, got %d", c.Content.FetchConcurrency)
	}
	if c.Content.Path == "" {
		return fmt.Errorf("LEARN_CONTENT_PATH is required")
	}

	return nil
}

// SlogLevel maps Log.Level to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
