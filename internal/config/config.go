package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Log LogConfig `json:"log"`
	WAL WALConfig `json:"wal"`
}

// LogConfig selects process-wide logging behavior.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// WALConfig captures the durability pipeline tunables. Intervals are in
// microseconds to match the granularity the flush cadence operates at.
type WALConfig struct {
	// Buffers is the number of reusable log buffers in the pool.
	Buffers int `json:"buffers"`
	// BufferBytes is the capacity of each buffer.
	BufferBytes int `json:"bufferBytes"`
	// BaseIntervalUS is the minimum/reset wake cadence of the disk consumer.
	BaseIntervalUS int `json:"baseIntervalUs"`
	// MaxIntervalUS bounds the adaptive idle backoff.
	MaxIntervalUS int `json:"maxIntervalUs"`
	// ByteThreshold is the bytes-written-since-flush count that forces a
	// physical flush ahead of the cadence.
	ByteThreshold int64 `json:"byteThreshold"`
}

// BaseInterval returns the wake cadence as a duration.
func (w WALConfig) BaseInterval() time.Duration {
	return time.Duration(w.BaseIntervalUS) * time.Microsecond
}

// MaxInterval returns the backoff ceiling as a duration.
func (w WALConfig) MaxInterval() time.Duration {
	return time.Duration(w.MaxIntervalUS) * time.Microsecond
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		WAL: WALConfig{
			Buffers:        16,
			BufferBytes:    64 << 10,
			BaseIntervalUS: 1000,
			MaxIntervalUS:  10000,
			ByteThreshold:  1 << 20,
		},
	}
}

// Load reads configuration from a JSON file. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects WAL settings that would misconfigure the pipeline.
func (c Config) Validate() error {
	w := c.WAL
	if w.Buffers <= 0 {
		return fmt.Errorf("config: wal.buffers must be positive, got %d", w.Buffers)
	}
	if w.BufferBytes <= 0 {
		return fmt.Errorf("config: wal.bufferBytes must be positive, got %d", w.BufferBytes)
	}
	if w.BaseIntervalUS <= 0 {
		return fmt.Errorf("config: wal.baseIntervalUs must be positive, got %d", w.BaseIntervalUS)
	}
	if w.MaxIntervalUS < w.BaseIntervalUS {
		return fmt.Errorf("config: wal.maxIntervalUs (%d) must be >= wal.baseIntervalUs (%d)",
			w.MaxIntervalUS, w.BaseIntervalUS)
	}
	if w.ByteThreshold < 0 {
		return fmt.Errorf("config: wal.byteThreshold must be non-negative, got %d", w.ByteThreshold)
	}
	return nil
}
