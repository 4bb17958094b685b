// Package log provides Terrier's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Entries flow through a
// Formatter (text or JSON) to one or more Outputs.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("wal"))
//	l.Info("pipeline started", log.Int("buffers", 16))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config supporting
// level and format selection. To integrate with libraries that write to the
// standard library logger (e.g. pebble), use RedirectStdLog.
package log
