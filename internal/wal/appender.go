package wal

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
)

// Frame layout: payloadLen (4B big-endian) | payload | crc32c(payload).
const (
	frameHeaderLen  = 4
	frameTrailerLen = 4
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Appender is the producer-side shim that serializes records into pipeline
// buffers. Appends are mutually exclusive so a frame spanning several buffers
// is never interleaved with another producer's bytes; the pipeline's FIFO
// hand-off then keeps frames contiguous in the file.
type Appender struct {
	mu sync.Mutex
	p  *Pipeline
}

// NewAppender returns an Appender feeding the given pipeline.
func NewAppender(p *Pipeline) *Appender {
	return &Appender{p: p}
}

// Append frames payload and hands it to the pipeline. notify, if non-nil,
// fires once the record's covering flush completes. An empty payload pushes
// a buffer-less unit: no bytes are written, but the callback still rides the
// next persist boundary.
func (a *Appender) Append(ctx context.Context, payload []byte, notify Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var notifs []Notification
	if notify != nil {
		notifs = []Notification{notify}
	}

	if len(payload) == 0 {
		return a.p.Push(DrainUnit{Notifs: notifs})
	}

	rec := encodeFrame(payload)
	for len(rec) > 0 {
		b, err := a.p.AcquireBuffer(ctx)
		if err != nil {
			return err
		}
		n := b.Append(rec)
		rec = rec[n:]
		unit := DrainUnit{Buf: b}
		if len(rec) == 0 {
			unit.Notifs = notifs
		}
		if err := a.p.Push(unit); err != nil {
			return err
		}
	}
	return nil
}

// AppendSync appends payload and blocks until its covering flush completes.
func (a *Appender) AppendSync(ctx context.Context, payload []byte) error {
	durable := make(chan struct{})
	if err := a.Append(ctx, payload, func() { close(durable) }); err != nil {
		return err
	}
	select {
	case <-durable:
		return nil
	case <-a.p.Done():
		// A clean shutdown drains to completion and still fires callbacks;
		// only a fatal error leaves them unfired.
		select {
		case <-durable:
			return nil
		default:
		}
		return a.p.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func encodeFrame(payload []byte) []byte {
	rec := make([]byte, frameHeaderLen+len(payload)+frameTrailerLen)
	binary.BigEndian.PutUint32(rec, uint32(len(payload)))
	copy(rec[frameHeaderLen:], payload)
	sum := crc32.Checksum(payload, castagnoli)
	binary.BigEndian.PutUint32(rec[frameHeaderLen+len(payload):], sum)
	return rec
}

var errFrameCorrupt = errors.New("wal: corrupt frame")

// decodeFrame parses one frame from the front of b, returning the payload
// and the remaining bytes.
func decodeFrame(b []byte) (payload, rest []byte, err error) {
	if len(b) < frameHeaderLen {
		return nil, nil, fmt.Errorf("%w: short header", errFrameCorrupt)
	}
	n := int(binary.BigEndian.Uint32(b))
	if len(b) < frameHeaderLen+n+frameTrailerLen {
		return nil, nil, fmt.Errorf("%w: truncated payload", errFrameCorrupt)
	}
	payload = b[frameHeaderLen : frameHeaderLen+n]
	want := binary.BigEndian.Uint32(b[frameHeaderLen+n:])
	if crc32.Checksum(payload, castagnoli) != want {
		return nil, nil, fmt.Errorf("%w: checksum mismatch", errFrameCorrupt)
	}
	return payload, b[frameHeaderLen+n+frameTrailerLen:], nil
}
