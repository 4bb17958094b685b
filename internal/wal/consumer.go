package wal

import (
	"fmt"
	"time"

	logpkg "github.com/mbutrovich/terrier/pkg/log"
)

// pending is the consumer's accumulator: everything written but not yet
// covered by a physical flush. Touched only by the consumer goroutine.
type pending struct {
	bytes   int64
	notifs  []Notification
	waiters []chan error
	force   bool
}

func (acc *pending) reset() {
	acc.bytes = 0
	acc.notifs = nil
	acc.waiters = nil
	acc.force = false
}

// run is the disk consumer loop. It is the only goroutine that writes or
// syncs the log file.
func (p *Pipeline) run() {
	defer close(p.done)
	p.started.Store(true)

	var acc pending
	running := true
	stopCh := p.stop

	currSleep := p.opts.BaseInterval
	nextSleep := currSleep
	lastFlush := time.Now()
	timer := time.NewTimer(currSleep)
	defer timer.Stop()

	for running {
		currSleep = nextSleep

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(currSleep)

		// Wait until there is a filled unit to write, a force-flush request,
		// a shutdown signal, or the wake window expires.
		signaled := true
		select {
		case unit := <-p.filled:
			if err := p.consume(unit, &acc); err != nil {
				p.fail(err, &acc)
				return
			}
		case w := <-p.force:
			acc.waiters = append(acc.waiters, w)
			acc.force = true
		case <-stopCh:
			running = false
			stopCh = nil
		case <-timer.C:
			// A unit enqueued as the timer fired still counts as a wake;
			// only a pure idle timeout widens the window.
			signaled = len(p.filled) > 0
		}
		p.metrics.ObserveWait(currSleep, signaled)
		nextSleep = p.opts.nextWait(currSleep, signaled)

		// Drain everything already queued.
		if err := p.drain(&acc); err != nil {
			p.fail(err, &acc)
			return
		}

		// Persist when the cadence window has elapsed since the last flush,
		// enough bytes have accumulated, a flush was forced, or we are
		// shutting down. Otherwise loop back and keep accumulating.
		timedOut := time.Since(lastFlush) > currSleep
		if timedOut || acc.bytes > p.opts.ByteThreshold || acc.force || !running {
			if err := p.persist(&acc); err != nil {
				p.fail(err, &acc)
				return
			}
			acc.reset()
			lastFlush = time.Now()
		}
	}

	// Final pass: anything that raced with termination is still written,
	// flushed, and notified before the goroutine exits.
	if err := p.drain(&acc); err != nil {
		p.fail(err, &acc)
		return
	}
	if err := p.persist(&acc); err != nil {
		p.fail(err, &acc)
		return
	}
	p.logger.Debug("wal consumer stopped")
}

// drain empties the filled queue without blocking, also collecting any
// force-flush requests that arrived meanwhile.
func (p *Pipeline) drain(acc *pending) error {
	for {
		select {
		case unit := <-p.filled:
			if err := p.consume(unit, acc); err != nil {
				return err
			}
		case w := <-p.force:
			acc.waiters = append(acc.waiters, w)
			acc.force = true
		default:
			return nil
		}
	}
}

// consume writes one drain unit's bytes to the log file, recycles its buffer,
// and accumulates its notifications. The buffer goes back to the pool as soon
// as the write call returns: the write has copied the bytes out, so reuse
// does not depend on physical durability.
func (p *Pipeline) consume(unit DrainUnit, acc *pending) error {
	if unit.Buf != nil {
		n, err := p.file.Write(unit.Buf.Bytes())
		acc.bytes += int64(n)
		if err != nil {
			return fmt.Errorf("wal: write log file: %w", err)
		}
		p.metrics.ObserveWrite(n)
		unit.Buf.Reset()
		p.empty <- unit.Buf
	}
	acc.notifs = append(acc.notifs, unit.Notifs...)
	return nil
}

// persist performs one physical flush cycle: a single sync call covering all
// bytes appended since the previous flush, then the accumulated notifications
// in FIFO order, then any blocked force-flush callers.
func (p *Pipeline) persist(acc *pending) error {
	start := time.Now()
	if acc.bytes > 0 {
		// All buffers append to the same file, so one sync covers every write
		// since the previous flush.
		if err := p.file.Sync(); err != nil {
			return fmt.Errorf("wal: sync log file: %w", err)
		}
	}
	for _, notify := range acc.notifs {
		notify()
	}
	for _, w := range acc.waiters {
		w <- nil
	}
	p.metrics.ObserveFlush(time.Since(start), acc.bytes, len(acc.notifs))
	return nil
}

// fail records a fatal I/O error and halts the consumer. Accumulated
// notifications are deliberately not fired: their bytes were never confirmed
// durable. Force-flush waiters are released with the error so callers do not
// hang.
func (p *Pipeline) fail(err error, acc *pending) {
	p.errVal = err
	p.logger.Error("wal pipeline failed, halting disk consumer", logpkg.Err(err))
	for _, w := range acc.waiters {
		w <- err
	}
	// Answer force requests that raced in before done closes.
	for {
		select {
		case w := <-p.force:
			w <- err
		default:
			return
		}
	}
}
