package wal

import "time"

// MetricsHook observes pipeline activity. It is optional and best-effort:
// the pipeline behaves identically with NoopMetrics installed, and hook
// calls happen on the consumer goroutine, so implementations must be cheap
// and must not block.
type MetricsHook interface {
	// ObserveWrite reports one buffer's bytes handed to the log file.
	ObserveWrite(bytes int)
	// ObserveFlush reports a completed persist cycle.
	ObserveFlush(elapsed time.Duration, bytes int64, notifications int)
	// ObserveWait reports the wake window used for one consumer iteration and
	// whether the wait ended by signal (work/force/stop) or by timeout.
	ObserveWait(window time.Duration, signaled bool)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(int)                       {}
func (NoopMetrics) ObserveFlush(time.Duration, int64, int) {}
func (NoopMetrics) ObserveWait(time.Duration, bool)        {}
