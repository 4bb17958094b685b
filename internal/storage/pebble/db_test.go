package pebblestore

import (
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
)

type testMetrics struct {
	reads   int
	commits int
}

func (m *testMetrics) ObserveRead(time.Duration, int)   { m.reads++ }
func (m *testMetrics) ObserveCommit(time.Duration, int) { m.commits++ }

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	metrics := &testMetrics{}
	db, err := Open(Options{DataDir: t.TempDir(), Metrics: metrics})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestOpenRequiresDataDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatalf("expected error for empty data dir")
	}
}

func TestSetGetDelete(t *testing.T) {
	db, metrics := newTestDB(t)

	if err := db.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q", got)
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if metrics.reads == 0 || metrics.commits == 0 {
		t.Fatalf("metrics hook not observed: %+v", metrics)
	}
}

func TestBatchAndIter(t *testing.T) {
	db, _ := newTestDB(t)

	b := db.NewBatch()
	_ = b.Set([]byte("a/1"), []byte("one"), nil)
	_ = b.Set([]byte("a/2"), []byte("two"), nil)
	_ = b.Set([]byte("b/1"), []byte("other"), nil)
	if err := db.CommitBatch(b); err != nil {
		t.Fatalf("commit: %v", err)
	}

	it, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("a/"),
		UpperBound: []byte("a0"),
	})
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	defer it.Close()
	var keys []string
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if len(keys) != 2 || keys[0] != "a/1" || keys[1] != "a/2" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
