// Package devmem maps a physical register region through /dev/mem so the
// drivers can run against FPGA fabric peripherals from a Linux host.
package devmem

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/allbin/go-uart/hw"
)

const devMem = "/dev/mem"

// Mem is an mmap'd physical window implementing hw.Bus. Addresses passed to
// it are physical; accesses outside the window panic.
type Mem struct {
	f    *os.File
	phys uintptr
	mem  []byte
}

var _ hw.Bus = (*Mem)(nil)

// Open maps size bytes of physical memory starting at phys. phys must be
// page aligned.
func Open(phys uintptr, size int) (*Mem, error) {
	if size <= 0 {
		return nil, fmt.Errorf("devmem: invalid size %d", size)
	}
	if phys%uintptr(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("devmem: base 0x%X is not page aligned", phys)
	}
	f, err := os.OpenFile(devMem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("devmem: %w", err)
	}
	mem, err := unix.Mmap(int(f.Fd()), int64(phys), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: mmap 0x%X+%d: %v", devMem, phys, size, err)
	}
	return &Mem{f: f, phys: phys, mem: mem}, nil
}

// Close unmaps the window.
func (m *Mem) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (m *Mem) ptr(addr uintptr, width uintptr) unsafe.Pointer {
	off := addr - m.phys
	if addr < m.phys || off+width > uintptr(len(m.mem)) {
		panic(fmt.Sprintf("devmem: address 0x%X outside window 0x%X+%d", addr, m.phys, len(m.mem)))
	}
	return unsafe.Pointer(&m.mem[off])
}

func (m *Mem) Read8(addr uintptr) uint8 {
	return *(*uint8)(m.ptr(addr, 1))
}

func (m *Mem) Write8(addr uintptr, v uint8) {
	*(*uint8)(m.ptr(addr, 1)) = v
}

func (m *Mem) Read16(addr uintptr) uint16 {
	return *(*uint16)(m.ptr(addr, 2))
}

func (m *Mem) Write16(addr uintptr, v uint16) {
	*(*uint16)(m.ptr(addr, 2)) = v
}

// Read32 uses an atomic load so the compiler neither caches nor tears the
// access.
func (m *Mem) Read32(addr uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(m.ptr(addr, 4)))
}

func (m *Mem) Write32(addr uintptr, v uint32) {
	atomic.StoreUint32((*uint32)(m.ptr(addr, 4)), v)
}
