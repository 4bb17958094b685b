// Package serverrun boots a Terrier engine process and blocks until it is
// signalled to stop or the WAL pipeline reports a fatal storage failure.
package serverrun
