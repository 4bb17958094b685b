// Package wal implements Terrier's write-ahead log durability pipeline: the
// path by which serialized log records become durable on disk and by which
// commit notifications are released only after that durability is guaranteed.
//
// # Overview
//
// A fixed pool of reusable Buffers cycles between a producer (the record
// serializer) and a single background disk consumer through two bounded
// queues. The producer fills a Buffer and pushes it, paired with the commit
// Notifications that depend on it, as a DrainUnit. The consumer drains units,
// appends their bytes to the log file, recycles each buffer as soon as the
// write call has copied its bytes out, and accumulates the notifications.
// Periodically it performs one physical flush of the file and then fires all
// accumulated notifications in FIFO order.
//
// The consumer decides when to flush adaptively: it flushes when the elapsed
// time since the last flush exceeds its current wake window, when the bytes
// written since the last flush exceed a threshold, when a caller requests a
// synchronous flush, or on shutdown. When idle, the wake window doubles up to
// a ceiling so a quiescent system wakes the consumer less and less often; any
// work arriving resets the window to its base. Note the timeout test uses the
// current (possibly widened) window, deliberately coupling flush latency to
// idle history; BaseInterval and MaxInterval expose the trade-off.
//
// # Guarantees
//
//   - Buffers are written to the file in enqueue order; notifications fire in
//     enqueue order.
//   - A notification never fires before a flush that covers the write of its
//     unit's bytes.
//   - Terminate drains to completion: every unit enqueued before the
//     terminate call is written, flushed, and notified before the consumer
//     goroutine exits.
//   - A write or sync failure is fatal to the pipeline. Notifications whose
//     bytes were not confirmed durable are never fired; the failure surfaces
//     through Err/Done and through any blocked force-flush callers.
//
// Quick start
//
//	p, _ := wal.New(wal.DefaultOptions(path))
//	p.Start()
//	defer p.Close()
//	a := wal.NewAppender(p)
//	_ = a.AppendSync(ctx, record) // returns after the record is durable
package wal
