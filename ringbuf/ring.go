// Package ringbuf provides a fixed-capacity circular byte buffer.
//
// The buffer never grows and never checks its own preconditions on the
// hot path: Push on a full buffer and Pop or Front on an empty buffer are
// programming errors. Callers test Full or Empty first. Every operation is
// O(1) and uses no division, so the buffer can be driven from an interrupt
// handler.
package ringbuf

// Buffer is a bounded FIFO of bytes.
type Buffer struct {
	elements []byte
	head     int
	tail     int
	size     int
}

// New allocates a buffer holding up to capacity bytes.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &Buffer{elements: make([]byte, capacity)}
}

// NewWithStorage wraps a caller-supplied region; its length is the capacity.
// The buffer takes ownership of storage.
func NewWithStorage(storage []byte) *Buffer {
	if len(storage) == 0 {
		panic("ringbuf: storage must not be empty")
	}
	return &Buffer{elements: storage}
}

// Clear empties the buffer without touching the stored bytes.
func (b *Buffer) Clear() {
	b.head = 0
	b.tail = 0
	b.size = 0
}

// Push appends v at the tail. The buffer must not be full.
func (b *Buffer) Push(v byte) {
	b.elements[b.tail] = v
	if b.tail++; b.tail == len(b.elements) {
		b.tail = 0
	}
	b.size++
}

// Pop drops the byte at the head. The buffer must not be empty.
func (b *Buffer) Pop() {
	if b.head++; b.head == len(b.elements) {
		b.head = 0
	}
	b.size--
}

// Front returns the byte at the head without removing it.
// The buffer must not be empty.
func (b *Buffer) Front() byte {
	return b.elements[b.head]
}

// Peek is an alias of Front.
func (b *Buffer) Peek() byte {
	return b.elements[b.head]
}

// Empty reports whether the buffer holds no bytes.
func (b *Buffer) Empty() bool {
	return b.size == 0
}

// Full reports whether the buffer is at capacity.
func (b *Buffer) Full() bool {
	return b.size >= len(b.elements)
}

// Size returns the number of buffered bytes.
func (b *Buffer) Size() int {
	return b.size
}

// AvailableSize returns the free capacity.
func (b *Buffer) AvailableSize() int {
	return len(b.elements) - b.size
}

// MaxSize returns the capacity fixed at construction.
func (b *Buffer) MaxSize() int {
	return len(b.elements)
}
