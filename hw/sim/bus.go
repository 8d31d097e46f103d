package sim

import (
	"fmt"
	"sort"

	"github.com/allbin/go-uart/hw"
)

// Device is a memory-mapped peripheral. offset is relative to the device's
// base and width is the access size in bytes (1, 2 or 4).
type Device interface {
	Read(offset uint32, width int) uint32
	Write(offset uint32, width int, v uint32)
}

type mapping struct {
	base uintptr
	size uint32
	dev  Device
}

// Bus routes absolute addresses to mapped devices. Accesses outside every
// mapping panic, as a bus error would.
type Bus struct {
	maps []mapping
}

var _ hw.Bus = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{}
}

// Map places dev at [base, base+size). Overlapping mappings panic.
func (b *Bus) Map(base uintptr, size uint32, dev Device) {
	for _, m := range b.maps {
		if base < m.base+uintptr(m.size) && m.base < base+uintptr(size) {
			panic(fmt.Sprintf("sim: mapping 0x%X+%d overlaps 0x%X+%d", base, size, m.base, m.size))
		}
	}
	b.maps = append(b.maps, mapping{base: base, size: size, dev: dev})
	sort.Slice(b.maps, func(i, j int) bool { return b.maps[i].base < b.maps[j].base })
}

func (b *Bus) lookup(addr uintptr, width int) (Device, uint32) {
	for _, m := range b.maps {
		if addr >= m.base && addr+uintptr(width) <= m.base+uintptr(m.size) {
			return m.dev, uint32(addr - m.base)
		}
	}
	panic(fmt.Sprintf("sim: bus error at 0x%08X", addr))
}

func (b *Bus) Read8(addr uintptr) uint8 {
	d, off := b.lookup(addr, 1)
	return uint8(d.Read(off, 1))
}

func (b *Bus) Write8(addr uintptr, v uint8) {
	d, off := b.lookup(addr, 1)
	d.Write(off, 1, uint32(v))
}

func (b *Bus) Read16(addr uintptr) uint16 {
	d, off := b.lookup(addr, 2)
	return uint16(d.Read(off, 2))
}

func (b *Bus) Write16(addr uintptr, v uint16) {
	d, off := b.lookup(addr, 2)
	d.Write(off, 2, uint32(v))
}

func (b *Bus) Read32(addr uintptr) uint32 {
	d, off := b.lookup(addr, 4)
	return d.Read(off, 4)
}

func (b *Bus) Write32(addr uintptr, v uint32) {
	d, off := b.lookup(addr, 4)
	d.Write(off, 4, v)
}
