package config

import (
	"os"
	"strconv"
)

// FromEnv overlays TERRIER_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("TERRIER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TERRIER_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TERRIER_WAL_BUFFERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WAL.Buffers = n
		}
	}
	if v := os.Getenv("TERRIER_WAL_BUFFER_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WAL.BufferBytes = n
		}
	}
	if v := os.Getenv("TERRIER_WAL_BASE_INTERVAL_US"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WAL.BaseIntervalUS = n
		}
	}
	if v := os.Getenv("TERRIER_WAL_MAX_INTERVAL_US"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WAL.MaxIntervalUS = n
		}
	}
	if v := os.Getenv("TERRIER_WAL_BYTE_THRESHOLD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.WAL.ByteThreshold = n
		}
	}
}
