package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mbutrovich/terrier/internal/catalog"
	cfgpkg "github.com/mbutrovich/terrier/internal/config"
	pebblestore "github.com/mbutrovich/terrier/internal/storage/pebble"
	"github.com/mbutrovich/terrier/internal/wal"
	logpkg "github.com/mbutrovich/terrier/pkg/log"
)

// Options for building the Engine.
type Options struct {
	// DataDir is the root data directory. Empty selects the OS default.
	DataDir string
	Config  cfgpkg.Config
	Logger  logpkg.Logger
	// WALMetrics optionally observes the durability pipeline.
	WALMetrics wal.MetricsHook
}

// Engine is a single-node Terrier instance: a Pebble store for applied
// state, the WAL durability pipeline, and the catalog on top of both.
type Engine struct {
	cfg    cfgpkg.Config
	logger logpkg.Logger

	db   *pebblestore.DB
	pipe *wal.Pipeline
	app  *wal.Appender
	cat  *catalog.Catalog

	closeOnce sync.Once
	closeErr  error
}

// Open validates configuration, opens the store and the WAL pipeline, and
// starts the disk consumer.
func Open(opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}

	db, err := pebblestore.Open(pebblestore.Options{DataDir: filepath.Join(opts.DataDir, "store")})
	if err != nil {
		return nil, fmt.Errorf("engine: open store: %w", err)
	}

	w := opts.Config.WAL
	pipe, err := wal.New(wal.Options{
		Path:          filepath.Join(opts.DataDir, "wal", "terrier.wal"),
		Buffers:       w.Buffers,
		BufferBytes:   w.BufferBytes,
		BaseInterval:  w.BaseInterval(),
		MaxInterval:   w.MaxInterval(),
		ByteThreshold: w.ByteThreshold,
		Logger:        logger.WithComponent("wal"),
		Metrics:       opts.WALMetrics,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	pipe.Start()

	app := wal.NewAppender(pipe)
	cat, err := catalog.Open(db, app, logger.WithComponent("catalog"))
	if err != nil {
		_ = pipe.Close()
		_ = db.Close()
		return nil, err
	}

	return &Engine{
		cfg:    opts.Config,
		logger: logger,
		db:     db,
		pipe:   pipe,
		app:    app,
		cat:    cat,
	}, nil
}

// Catalog returns the table catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// WAL returns the durability pipeline.
func (e *Engine) WAL() *wal.Pipeline { return e.pipe }

// Appender returns the engine's record appender.
func (e *Engine) Appender() *wal.Appender { return e.app }

// Config returns the engine configuration.
func (e *Engine) Config() cfgpkg.Config { return e.cfg }

// Checkpoint forces a synchronous durability point: it returns once every
// record appended before the call is covered by a physical flush.
func (e *Engine) Checkpoint() error {
	return e.pipe.RequestForceFlush()
}

// CheckHealth verifies the store is readable and the pipeline has not failed.
func (e *Engine) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.pipe.Err(); err != nil {
		return fmt.Errorf("engine: wal pipeline: %w", err)
	}
	it, err := e.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Close drains and terminates the WAL pipeline, then closes the store.
// Safe to call multiple times.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []error
		if err := e.pipe.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}
