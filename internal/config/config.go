// ABOUTME: Runtime configuration for the dawcore CLI
// ABOUTME: Loads settings from DAWCORE_* environment variables with defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrInvalidConfig is returned by Validate for impossible settings
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all runtime configuration, loaded from environment variables.
// Command-line flags override individual fields after Load.
type Config struct {
	// Audio
	SampleRate int
	BPM        float64

	// Buffer cache
	CacheMB   int
	CachePath string // empty disables the persistent store

	// Scheduler
	LookAhead time.Duration
	Interval  time.Duration

	// Output
	LogFile   string
	ExportDir string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		SampleRate: envInt("DAWCORE_SAMPLE_RATE", 48000),
		BPM:        envFloat("DAWCORE_BPM", 120),

		CacheMB:   envInt("DAWCORE_CACHE_MB", 100),
		CachePath: envStr("DAWCORE_CACHE_PATH", defaultCachePath()),

		LookAhead: time.Duration(envInt("DAWCORE_LOOKAHEAD_MS", 100)) * time.Millisecond,
		Interval:  time.Duration(envInt("DAWCORE_INTERVAL_MS", 25)) * time.Millisecond,

		LogFile:   envStr("DAWCORE_LOG_FILE", "dawcore.log"),
		ExportDir: envStr("DAWCORE_EXPORT_DIR", "."),
	}
}

// Validate rejects settings the engine cannot run with
func (c Config) Validate() error {
	switch {
	case c.SampleRate < 8000 || c.SampleRate > 384000:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.BPM <= 0 || c.BPM > 999:
		return fmt.Errorf("%w: bpm %v", ErrInvalidConfig, c.BPM)
	case c.CacheMB <= 0:
		return fmt.Errorf("%w: cache size %dMB", ErrInvalidConfig, c.CacheMB)
	case c.Interval <= 0:
		return fmt.Errorf("%w: scheduler interval %v", ErrInvalidConfig, c.Interval)
	case c.LookAhead < c.Interval:
		return fmt.Errorf("%w: look-ahead %v shorter than interval %v", ErrInvalidConfig, c.LookAhead, c.Interval)
	}
	return nil
}

// CacheBytes returns the memory cache budget in bytes
func (c Config) CacheBytes() int64 {
	return int64(c.CacheMB) << 20
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dawcore", "buffers.db")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
