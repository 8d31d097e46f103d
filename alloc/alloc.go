// Package alloc provides the byte allocators that back transport buffers.
//
// Heap defers to the Go runtime. OnlyOnce carves blocks out of a fixed pool
// and never frees them, which suits systems that allocate everything at
// start-up and must never fragment.
package alloc

import (
	"errors"
	"fmt"
)

// Alignment is the boundary every OnlyOnce block starts on.
const Alignment = 8

var (
	ErrOutOfMemory     = errors.New("alloc: out of memory")
	ErrFreeUnsupported = errors.New("alloc: allocator does not release memory")
	ErrInvalidSize     = errors.New("alloc: invalid size")
)

// Allocator hands out byte blocks.
type Allocator interface {
	Allocate(n int) ([]byte, error)
	Deallocate(b []byte) error
}

// Stats counts requests made to an allocator.
type Stats struct {
	Allocations   uint64
	Deallocations uint64
}

// Heap allocates from the Go heap.
type Heap struct {
	stats Stats
}

var _ Allocator = (*Heap)(nil)

func (h *Heap) Allocate(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	h.stats.Allocations++
	return make([]byte, n), nil
}

// Deallocate drops the block; the garbage collector reclaims it.
func (h *Heap) Deallocate(b []byte) error {
	h.stats.Deallocations++
	return nil
}

func (h *Heap) Stats() Stats {
	return h.stats
}

// OnlyOnce is a bump allocator over a fixed pool.
type OnlyOnce struct {
	pool  []byte
	next  int
	stats Stats
}

var _ Allocator = (*OnlyOnce)(nil)

// NewOnlyOnce allocates from pool. Capacity is rounded down to a multiple
// of Alignment.
func NewOnlyOnce(pool []byte) *OnlyOnce {
	return &OnlyOnce{pool: pool[:len(pool)&^(Alignment-1)]}
}

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// Allocate returns the next n bytes of the pool. The following block starts
// on the next aligned offset.
func (a *OnlyOnce) Allocate(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	a.stats.Allocations++
	if n > len(a.pool)-a.next {
		return nil, fmt.Errorf("%w: %d bytes requested, %d available", ErrOutOfMemory, n, a.Available())
	}
	b := a.pool[a.next : a.next+n : a.next+n]
	a.next = alignUp(a.next + n)
	if a.next > len(a.pool) {
		a.next = len(a.pool)
	}
	return b, nil
}

// Deallocate always fails; blocks live as long as the pool.
func (a *OnlyOnce) Deallocate(b []byte) error {
	a.stats.Deallocations++
	return ErrFreeUnsupported
}

// Used returns the bytes consumed, alignment padding included.
func (a *OnlyOnce) Used() int {
	return a.next
}

// Available returns the bytes left in the pool.
func (a *OnlyOnce) Available() int {
	return len(a.pool) - a.next
}

// Capacity returns the usable pool size.
func (a *OnlyOnce) Capacity() int {
	return len(a.pool)
}

func (a *OnlyOnce) Stats() Stats {
	return a.stats
}
