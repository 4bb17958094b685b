package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	serverrun "github.com/mbutrovich/terrier/internal/cmd/server"
	cfgpkg "github.com/mbutrovich/terrier/internal/config"
	"github.com/mbutrovich/terrier/internal/engine"
	"github.com/mbutrovich/terrier/internal/wal"
	logpkg "github.com/mbutrovich/terrier/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// initialize logger for CLI
	// Respect TERRIER_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("TERRIER_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "terrier",
		Short: "Terrier storage engine CLI",
		Long:  "Terrier is a single-binary storage engine. This CLI manages the server and basic operations.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the terrier engine",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			configPath, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			buffers, _ := cmd.Flags().GetInt("wal-buffers")
			bufferBytes, _ := cmd.Flags().GetInt("wal-buffer-bytes")
			baseUS, _ := cmd.Flags().GetInt("wal-base-interval-us")
			maxUS, _ := cmd.Flags().GetInt("wal-max-interval-us")
			threshold, _ := cmd.Flags().GetInt64("wal-byte-threshold")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfgpkg.FromEnv(&cfg)
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			if buffers > 0 {
				cfg.WAL.Buffers = buffers
			}
			if bufferBytes > 0 {
				cfg.WAL.BufferBytes = bufferBytes
			}
			if baseUS > 0 {
				cfg.WAL.BaseIntervalUS = baseUS
			}
			if maxUS > 0 {
				cfg.WAL.MaxIntervalUS = maxUS
			}
			if threshold >= 0 {
				cfg.WAL.ByteThreshold = threshold
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir: dataDir,
				Config:  cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("config", "", "Path to JSON config file")
	serverStartCmd.Flags().String("log-level", os.Getenv("TERRIER_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("TERRIER_LOG_FORMAT"), "Log format: text|json (default text)")
	serverStartCmd.Flags().Int("wal-buffers", 0, "Number of reusable WAL buffers (default 16)")
	serverStartCmd.Flags().Int("wal-buffer-bytes", 0, "Capacity of each WAL buffer in bytes (default 65536)")
	serverStartCmd.Flags().Int("wal-base-interval-us", 0, "Disk consumer base wake cadence in microseconds (default 1000)")
	serverStartCmd.Flags().Int("wal-max-interval-us", 0, "Disk consumer idle backoff ceiling in microseconds (default 10000)")
	serverStartCmd.Flags().Int64("wal-byte-threshold", -1, "Bytes pending before an early flush (default 1048576)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// wal bench
	walCmd := &cobra.Command{Use: "wal", Short: "WAL operations"}
	walBenchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure append throughput of the durability pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			count, _ := cmd.Flags().GetInt("n")
			size, _ := cmd.Flags().GetInt("size")
			syncEach, _ := cmd.Flags().GetBool("sync")
			if dir == "" {
				var err error
				dir, err = os.MkdirTemp("", "terrier-bench-")
				if err != nil {
					return err
				}
				defer os.RemoveAll(dir)
			}
			return runWALBench(cmd.Context(), dir, count, size, syncEach, logger)
		},
	}
	walBenchCmd.Flags().String("dir", "", "Directory for the bench WAL file (default: temp dir, removed after)")
	walBenchCmd.Flags().Int("n", 100000, "Number of records to append")
	walBenchCmd.Flags().Int("size", 128, "Payload size in bytes")
	walBenchCmd.Flags().Bool("sync", false, "Wait for durability after every append")
	walCmd.AddCommand(walBenchCmd)
	rootCmd.AddCommand(walCmd)

	// catalog list
	catalogCmd := &cobra.Command{Use: "catalog", Short: "Catalog operations"}
	catalogListCmd := &cobra.Command{
		Use:   "list",
		Short: "List tables in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			eng, err := engine.Open(engine.Options{
				DataDir: dataDir,
				Config:  cfgpkg.Default(),
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			defer eng.Close()

			tables, err := eng.Catalog().ListTables()
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				fmt.Println("no tables")
				return nil
			}
			for _, t := range tables {
				fmt.Printf("%d\t%s\t%d columns\t%s\n",
					t.OID, t.Name, len(t.Columns),
					time.UnixMilli(t.CreatedMs).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	catalogListCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	catalogCmd.AddCommand(catalogListCmd)
	rootCmd.AddCommand(catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWALBench(ctx context.Context, dir string, count, size int, syncEach bool, logger logpkg.Logger) error {
	opts := wal.DefaultOptions(filepath.Join(dir, "bench.wal"))
	opts.Logger = logger
	p, err := wal.New(opts)
	if err != nil {
		return err
	}
	p.Start()
	defer p.Close()

	app := wal.NewAppender(p)
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i)
	}

	start := time.Now()
	if syncEach {
		for i := 0; i < count; i++ {
			if err := app.AppendSync(ctx, payload); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < count; i++ {
			if err := app.Append(ctx, payload, nil); err != nil {
				return err
			}
		}
		if err := p.RequestForceFlush(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	total := int64(count) * int64(size)
	perSec := float64(count) / elapsed.Seconds()
	mbPerSec := float64(total) / (1 << 20) / elapsed.Seconds()
	fmt.Printf("appended %d records (%d bytes payload each) in %s\n", count, size, elapsed.Round(time.Millisecond))
	fmt.Printf("throughput: %.0f appends/s, %.2f MiB/s payload\n", perSec, mbPerSec)
	return nil
}
