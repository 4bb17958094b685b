package wal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LogFile is the append-only file the disk consumer writes and flushes.
// Exactly one goroutine, the consumer, performs I/O on it; the pipeline
// enforces this by construction rather than by locking.
type LogFile interface {
	io.Writer
	// Sync makes all bytes written so far durable.
	Sync() error
	Close() error
}

type osLogFile struct {
	f *os.File
}

// openLogFile opens (creating directories as needed) an append-only log file.
func openLogFile(path string) (*osLogFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("wal: create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open log file: %w", err)
	}
	return &osLogFile{f: f}, nil
}

func (l *osLogFile) Write(p []byte) (int, error) { return l.f.Write(p) }

// Sync flushes file data to stable storage. Metadata-only updates (mtime)
// are not needed for recovery, so the Linux build uses fdatasync.
func (l *osLogFile) Sync() error { return datasync(l.f) }

func (l *osLogFile) Close() error { return l.f.Close() }
