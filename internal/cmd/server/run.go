package serverrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/mbutrovich/terrier/internal/config"
	"github.com/mbutrovich/terrier/internal/engine"
	logpkg "github.com/mbutrovich/terrier/pkg/log"
)

// Options configures a server run.
type Options struct {
	DataDir string
	Config  cfgpkg.Config
}

const healthInterval = 30 * time.Second

// Run opens the engine and blocks until ctx is cancelled, a termination
// signal arrives, or the durability pipeline fails. A pipeline failure is
// returned as an error: the process must not keep accepting commits it can
// no longer back with durable bytes.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}

	logger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:  opts.Config.Log.Level,
		Format: opts.Config.Log.Format,
	})
	if err != nil {
		return err
	}
	// Route stdlib logs (e.g. pebble) through our logger.
	logpkg.RedirectStdLog(logger)

	eng, err := engine.Open(engine.Options{
		DataDir: opts.DataDir,
		Config:  opts.Config,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting terrier engine",
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Int("wal_buffers", opts.Config.WAL.Buffers),
		logpkg.Int("wal_buffer_bytes", opts.Config.WAL.BufferBytes),
		logpkg.Dur("wal_base_interval", opts.Config.WAL.BaseInterval()),
		logpkg.Dur("wal_max_interval", opts.Config.WAL.MaxInterval()),
		logpkg.Int64("wal_byte_threshold", opts.Config.WAL.ByteThreshold),
	)

	g, gctx := errgroup.WithContext(sctx)

	// Watch the pipeline: a fatal write/flush failure takes the process down.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-eng.WAL().Done():
			if werr := eng.WAL().Err(); werr != nil {
				logger.Error("wal pipeline failed", logpkg.Err(werr))
				return werr
			}
			return nil
		}
	})

	// Periodic health logging.
	g.Go(func() error {
		ticker := time.NewTicker(healthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if herr := eng.CheckHealth(gctx); herr != nil {
					logger.Warn("health check failed", logpkg.Err(herr))
				} else {
					logger.Debug("health check ok")
				}
			}
		}
	})

	runErr := g.Wait()

	if cerr := eng.Close(); cerr != nil && runErr == nil {
		runErr = cerr
	}
	logger.Info("terrier engine stopped")
	return runErr
}
