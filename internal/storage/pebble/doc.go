// Package pebblestore provides a thin wrapper around Pebble used for
// Terrier's catalog and other engine metadata.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{DataDir: "./data/store"})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic updates with batches
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(b)
//
//	// Point ops
//	_ = db.Set([]byte("k2"), []byte("v2"))
//	v, _ := db.Get([]byte("k2"))
//
// Record durability is the WAL pipeline's job; this store only has to keep
// applied state consistent, so all commits sync Pebble's own WAL.
package pebblestore
