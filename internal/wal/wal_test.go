package wal

import (
	"context"
	"sync"
	"testing"
	"time"
)

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// fakeLogFile is an in-memory LogFile recording the global order of write,
// sync, and notification events. Notifications created via mark share the
// fake's lock, so the recorded order is the true interleaving.
type fakeLogFile struct {
	mu        sync.Mutex
	events    []fakeEvent
	data      []byte
	syncs     int
	failWrite error
	failSync  error
}

type fakeEvent struct {
	kind string // "write", "sync", "notify"
	data []byte
	tag  string
	at   time.Time
}

func (f *fakeLogFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	f.data = append(f.data, p...)
	f.events = append(f.events, fakeEvent{kind: "write", data: append([]byte(nil), p...), at: time.Now()})
	return len(p), nil
}

func (f *fakeLogFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSync != nil {
		return f.failSync
	}
	f.syncs++
	f.events = append(f.events, fakeEvent{kind: "sync", at: time.Now()})
	return nil
}

func (f *fakeLogFile) Close() error { return nil }

// mark returns a Notification that records its firing in the event log.
func (f *fakeLogFile) mark(tag string) Notification {
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.events = append(f.events, fakeEvent{kind: "notify", tag: tag, at: time.Now()})
	}
}

func (f *fakeLogFile) snapshot() []fakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeEvent(nil), f.events...)
}

func (f *fakeLogFile) bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.data...)
}

func (f *fakeLogFile) syncCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncs
}

// recordingMetrics captures ObserveWait windows for backoff assertions.
type recordingMetrics struct {
	NoopMetrics
	mu    sync.Mutex
	waits []waitObs
}

type waitObs struct {
	window   time.Duration
	signaled bool
}

func (m *recordingMetrics) ObserveWait(window time.Duration, signaled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, waitObs{window: window, signaled: signaled})
}

func (m *recordingMetrics) snapshot() []waitObs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]waitObs(nil), m.waits...)
}

func testOptions(file LogFile, mutate func(*Options)) Options {
	opts := Options{
		File:          file,
		Buffers:       4,
		BufferBytes:   64,
		BaseInterval:  time.Hour, // tests trigger flushes explicitly unless overridden
		MaxInterval:   time.Hour,
		ByteThreshold: 1 << 20,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return opts
}

func newTestPipeline(t *testing.T, file LogFile, mutate func(*Options)) *Pipeline {
	t.Helper()
	p, err := New(testOptions(file, mutate))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	p.Start()
	return p
}

// fillBuffer acquires a buffer and fills it with the given bytes.
func fillBuffer(t *testing.T, p *Pipeline, payload []byte) *Buffer {
	t.Helper()
	b, err := p.AcquireBuffer(testCtx(t))
	if err != nil {
		t.Fatalf("acquire buffer: %v", err)
	}
	if n := b.Append(payload); n != len(payload) {
		t.Fatalf("short append: %d of %d", n, len(payload))
	}
	return b
}

func eventIndex(events []fakeEvent, match func(fakeEvent) bool) int {
	for i, e := range events {
		if match(e) {
			return i
		}
	}
	return -1
}
