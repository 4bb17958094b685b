// Package engine wires storage, config, and the WAL durability pipeline into
// a single-node Terrier instance. It exposes Open/Close, a health check, and
// accessors for the catalog and the pipeline.
//
// Example:
//
//	cfg := config.Default()
//	eng, _ := engine.Open(engine.Options{DataDir: "./data", Config: cfg})
//	defer eng.Close()
//	_, _ = eng.Catalog().CreateTable(ctx, "users", nil)
//	_ = eng.Checkpoint() // synchronous durability point
package engine
