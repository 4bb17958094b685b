package wal

// Buffer is a fixed-capacity, reusable container for serialized log bytes.
// A buffer has exactly one owner at any time: the producer filling it, the
// filled queue, the consumer writing it, or the empty queue. Ownership moves
// through the pipeline's channels, never by sharing; once pushed onto the
// filled queue a buffer is read-only until the consumer recycles it.
type Buffer struct {
	data []byte
	n    int
}

func newBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Append copies as much of p as fits into the remaining capacity and returns
// the number of bytes consumed.
func (b *Buffer) Append(p []byte) int {
	n := copy(b.data[b.n:], p)
	b.n += n
	return n
}

// Bytes returns the filled portion of the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return b.n }

// Free returns the remaining capacity.
func (b *Buffer) Free() int { return len(b.data) - b.n }

// Cap returns the total capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Reset rewinds the write cursor so the buffer can be refilled.
func (b *Buffer) Reset() { b.n = 0 }
