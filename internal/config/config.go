// Package config loads colorfetch settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/colorfetch/internal/cache"
	"github.com/ironsheep/colorfetch/internal/imaging"
)

// Environment variable names.
const (
	EnvAddr          = "COLORFETCH_ADDR"
	EnvCacheSize     = "COLORFETCH_CACHE_SIZE"
	EnvFetchTimeout  = "COLORFETCH_FETCH_TIMEOUT"
	EnvMaxImageBytes = "COLORFETCH_MAX_IMAGE_BYTES"
	EnvLogLevel      = "COLORFETCH_LOG_LEVEL"
)

// DefaultAddr is the HTTP listen address used when none is configured.
const DefaultAddr = ":8080"

// Config holds process settings.
type Config struct {
	Addr          string
	CacheSize     int
	FetchTimeout  time.Duration
	MaxImageBytes int64
	LogLevel      slog.Level
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:          DefaultAddr,
		CacheSize:     cache.DefaultCapacity,
		FetchTimeout:  imaging.DefaultFetchTimeout,
		MaxImageBytes: imaging.DefaultMaxImageBytes,
		LogLevel:      slog.LevelInfo,
	}
}

// Load reads a .env file from the working directory, if present, and then
// the process environment. Variables already set in the environment take
// precedence over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset
// variables.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	}

	if v := strings.TrimSpace(getenv(EnvCacheSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("%s: want a positive integer, got %q", EnvCacheSize, v)
		}
		cfg.CacheSize = n
	}

	if v := strings.TrimSpace(getenv(EnvFetchTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%s: want a positive duration, got %q", EnvFetchTimeout, v)
		}
		cfg.FetchTimeout = d
	}

	if v := strings.TrimSpace(getenv(EnvMaxImageBytes)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("%s: want a positive byte count, got %q", EnvMaxImageBytes, v)
		}
		cfg.MaxImageBytes = n
	}

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}
