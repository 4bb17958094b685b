package wal

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	logpkg "github.com/mbutrovich/terrier/pkg/log"
)

// ErrClosed is returned by pipeline operations after the consumer has exited
// without a fatal error (i.e. after Terminate).
var ErrClosed = errors.New("wal: pipeline closed")

// Notification is a commit/abort callback released only after the physical
// flush covering its record. The pipeline invokes each notification exactly
// once, in enqueue (FIFO) order, on the consumer goroutine; callbacks must
// not block.
type Notification func()

// DrainUnit pairs an optional filled buffer with the notifications that
// become due once the unit is durable. Buf is nil for batches that produced
// no bytes (read-only transactions) but still owe callbacks; such
// notifications fire at the next persist boundary, since they depend on what
// was durable before them, not on bytes of their own.
type DrainUnit struct {
	Buf    *Buffer
	Notifs []Notification
}

// Pipeline owns the buffer pool, the two hand-off queues, and the single
// background disk consumer. Producers acquire empty buffers, fill them, and
// push drain units; the consumer writes, flushes, and notifies.
type Pipeline struct {
	opts    Options
	file    LogFile
	ownFile bool
	logger  logpkg.Logger
	metrics MetricsHook

	// empty carries recycled buffers back to producers; filled carries drain
	// units to the consumer. Both are bounded by the pool size, so a stalled
	// consumer backpressures producers instead of growing memory.
	empty  chan *Buffer
	filled chan DrainUnit

	// force carries one waiter per synchronous flush request. The consumer
	// answers every accepted waiter exactly once.
	force chan chan error

	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once

	// errVal is written by the consumer goroutine before done is closed.
	errVal   error
	closeErr error
}

// New builds a Pipeline with a preallocated pool of opts.Buffers buffers.
// The consumer does not run until Start is called.
func New(opts Options) (*Pipeline, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger().WithComponent("wal")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	file := opts.File
	ownFile := false
	if file == nil {
		f, err := openLogFile(opts.Path)
		if err != nil {
			return nil, err
		}
		file = f
		ownFile = true
	}

	p := &Pipeline{
		opts:    opts,
		file:    file,
		ownFile: ownFile,
		logger:  logger,
		metrics: metrics,
		empty:   make(chan *Buffer, opts.Buffers),
		filled:  make(chan DrainUnit, opts.Buffers),
		force:   make(chan chan error),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for i := 0; i < opts.Buffers; i++ {
		p.empty <- newBuffer(opts.BufferBytes)
	}
	return p, nil
}

// Start launches the disk consumer goroutine. It is safe to call once;
// subsequent calls are no-ops.
func (p *Pipeline) Start() {
	p.startOnce.Do(func() {
		go p.run()
	})
}

// AcquireBuffer obtains an empty buffer from the pool, blocking when the pool
// is exhausted (backpressure into the producer). The returned buffer is owned
// by the caller until pushed or released.
func (p *Pipeline) AcquireBuffer(ctx context.Context) (*Buffer, error) {
	// The empty queue stays non-empty after the consumer exits, so a plain
	// select would sometimes hand out a buffer from a dead pipeline. Check
	// done first; the select below covers shutdown while blocked.
	select {
	case <-p.done:
		return nil, p.closedErr()
	default:
	}
	select {
	case b := <-p.empty:
		return b, nil
	case <-p.done:
		return nil, p.closedErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an acquired but unpushed buffer to the pool.
func (p *Pipeline) Release(b *Buffer) {
	b.Reset()
	p.empty <- b
}

// Push enqueues a drain unit onto the filled queue, transferring ownership of
// unit.Buf (which may be nil) to the pipeline. Units are written and notified
// in push order.
func (p *Pipeline) Push(unit DrainUnit) error {
	// The filled queue is buffered, so after the consumer exits both cases
	// of the select below can be ready and the unit could land on a queue
	// nobody drains while Push reports success. Refuse dead pipelines up
	// front; the select covers shutdown while blocked.
	select {
	case <-p.done:
		return p.closedErr()
	default:
	}
	select {
	case p.filled <- unit:
		return nil
	case <-p.done:
		return p.closedErr()
	}
}

// RequestForceFlush wakes the consumer and blocks until a flush cycle that
// started no earlier than this request has completed. It returns the
// pipeline's fatal error if the cycle could not complete. It never performs
// the flush itself; the consumer remains the only goroutine touching the
// log file.
func (p *Pipeline) RequestForceFlush() error {
	w := make(chan error, 1)
	select {
	case p.force <- w:
	case <-p.done:
		return p.closedErr()
	}
	select {
	case err := <-w:
		return err
	case <-p.done:
		// The consumer answers every accepted waiter before done closes;
		// when both are ready, prefer the flush's actual result.
		select {
		case err := <-w:
			return err
		default:
		}
		return p.closedErr()
	}
}

// Terminate signals the consumer to stop, waits for its final
// drain-and-flush pass, and returns any fatal error. Every unit pushed
// before the terminate call is written, flushed, and notified before
// Terminate returns. Start must have been called.
func (p *Pipeline) Terminate() error {
	// Guard against terminating before the consumer has entered its loop.
	for !p.started.Load() {
		runtime.Gosched()
	}
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
	return p.errVal
}

// Close terminates the pipeline and closes the log file when the pipeline
// opened it. Safe to call multiple times.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.Terminate()
		if p.ownFile {
			if cerr := p.file.Close(); p.closeErr == nil {
				p.closeErr = cerr
			}
		}
	})
	return p.closeErr
}

// Done is closed when the consumer goroutine has exited, whether by
// Terminate or by a fatal I/O error.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// Err returns the pipeline's fatal error, or nil while it is running or
// after a clean shutdown.
func (p *Pipeline) Err() error {
	select {
	case <-p.done:
		return p.errVal
	default:
		return nil
	}
}

func (p *Pipeline) closedErr() error {
	if p.errVal != nil {
		return p.errVal
	}
	return ErrClosed
}
