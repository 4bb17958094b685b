package wal

import (
	"errors"
	"fmt"
	"time"

	logpkg "github.com/mbutrovich/terrier/pkg/log"
)

// Defaults for DefaultOptions.
const (
	DefaultBuffers       = 16
	DefaultBufferBytes   = 64 << 10
	DefaultBaseInterval  = time.Millisecond
	DefaultMaxInterval   = 10 * time.Millisecond
	DefaultByteThreshold = 1 << 20
)

// Options configures a Pipeline.
type Options struct {
	// Path of the append-only log file. Ignored when File is set.
	Path string
	// File overrides the log file implementation. Tests inject fakes here;
	// production callers normally leave it nil and set Path.
	File LogFile

	// Buffers is the size of the reusable buffer pool.
	Buffers int
	// BufferBytes is the capacity of each buffer.
	BufferBytes int

	// BaseInterval is the minimum/reset wake cadence of the disk consumer.
	BaseInterval time.Duration
	// MaxInterval bounds the adaptive idle backoff.
	MaxInterval time.Duration
	// ByteThreshold is the bytes-since-flush count that forces a physical
	// flush ahead of the cadence. Zero flushes whenever any bytes are pending.
	ByteThreshold int64

	// Logger receives pipeline lifecycle and failure entries. Optional.
	Logger logpkg.Logger
	// Metrics observes pipeline activity. Optional.
	Metrics MetricsHook
}

// DefaultOptions returns Options with production defaults for the given
// log file path.
func DefaultOptions(path string) Options {
	return Options{
		Path:          path,
		Buffers:       DefaultBuffers,
		BufferBytes:   DefaultBufferBytes,
		BaseInterval:  DefaultBaseInterval,
		MaxInterval:   DefaultMaxInterval,
		ByteThreshold: DefaultByteThreshold,
	}
}

func (o *Options) validate() error {
	if o.Path == "" && o.File == nil {
		return errors.New("wal: Options.Path or Options.File is required")
	}
	if o.Buffers <= 0 {
		return fmt.Errorf("wal: Options.Buffers must be positive, got %d", o.Buffers)
	}
	if o.BufferBytes <= 0 {
		return fmt.Errorf("wal: Options.BufferBytes must be positive, got %d", o.BufferBytes)
	}
	if o.BaseInterval <= 0 {
		return fmt.Errorf("wal: Options.BaseInterval must be positive, got %v", o.BaseInterval)
	}
	if o.MaxInterval < o.BaseInterval {
		return fmt.Errorf("wal: Options.MaxInterval (%v) must be >= BaseInterval (%v)",
			o.MaxInterval, o.BaseInterval)
	}
	if o.ByteThreshold < 0 {
		return fmt.Errorf("wal: Options.ByteThreshold must be non-negative, got %d", o.ByteThreshold)
	}
	return nil
}

// nextWait computes the wake window for the next consumer iteration. Work
// arriving resets to the base cadence; a pure idle timeout doubles the
// window up to the configured ceiling.
func (o *Options) nextWait(curr time.Duration, signaled bool) time.Duration {
	if signaled {
		return o.BaseInterval
	}
	next := curr * 2
	if next > o.MaxInterval {
		next = o.MaxInterval
	}
	return next
}
