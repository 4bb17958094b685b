// Package config holds Terrier's file/env configuration surface.
//
// Configuration is a plain struct with JSON tags, loaded from an optional
// JSON file and overlaid with TERRIER_* environment variables. WAL tunables
// are validated before the engine starts; a misconfigured pipeline is
// rejected at startup and never reaches the consumer run loop.
package config
