// Package hw declares the platform capabilities the drivers consume:
// device register access, interrupt controller registration and masking,
// and the global interrupt mask.
//
// Implementations live elsewhere: hw/devmem maps real registers from a
// Linux host, hw/sim models them for tests and the simulator CLI.
package hw

import "fmt"

// Bus reads and writes device registers at absolute addresses.
// Accesses are not cached or reordered.
type Bus interface {
	Read8(addr uintptr) uint8
	Write8(addr uintptr, v uint8)
	Read16(addr uintptr) uint16
	Write16(addr uintptr, v uint16)
	Read32(addr uintptr) uint32
	Write32(addr uintptr, v uint32)
}

// Regs is the register window of one device: a base address on a Bus.
type Regs struct {
	Bus  Bus
	Base uintptr
}

// Map returns the register window at base.
func Map(bus Bus, base uintptr) Regs {
	return Regs{Bus: bus, Base: base}
}

func (r Regs) Read8(offset uint32) uint8 {
	return r.Bus.Read8(r.Base + uintptr(offset))
}

func (r Regs) Write8(offset uint32, v uint8) {
	r.Bus.Write8(r.Base+uintptr(offset), v)
}

func (r Regs) Read16(offset uint32) uint16 {
	return r.Bus.Read16(r.Base + uintptr(offset))
}

func (r Regs) Write16(offset uint32, v uint16) {
	r.Bus.Write16(r.Base+uintptr(offset), v)
}

func (r Regs) Read32(offset uint32) uint32 {
	return r.Bus.Read32(r.Base + uintptr(offset))
}

func (r Regs) Write32(offset uint32, v uint32) {
	r.Bus.Write32(r.Base+uintptr(offset), v)
}

// IRQ identifies an interrupt source: a controller and a line on it.
type IRQ struct {
	Controller uint32
	Line       uint32
}

// NoIRQ marks a device without interrupt capability.
var NoIRQ = IRQ{Controller: 0xFFFFFFFF, Line: 0xFFFFFFFF}

// Valid reports whether q names a real interrupt source.
func (q IRQ) Valid() bool {
	return q != NoIRQ
}

func (q IRQ) String() string {
	if !q.Valid() {
		return "none"
	}
	return fmt.Sprintf("ic=0x%08X irq=%d", q.Controller, q.Line)
}

// Handler services one interrupt. It is registered once and invoked
// without arguments, so dispatch allocates nothing.
type Handler func()

// InterruptController registers handlers and masks individual sources.
// Disable suppresses only the given source; other devices stay live.
type InterruptController interface {
	// Register installs h for irq, replacing any previous handler.
	// A nil h removes the handler.
	Register(irq IRQ, h Handler) error
	Enable(irq IRQ)
	Disable(irq IRQ)
	// Ack acknowledges a serviced interrupt on controllers that latch
	// requests. It is a no-op on controllers that do not.
	Ack(irq IRQ)
}

// MaskState is the interrupt state saved by GlobalMask.DisableAll.
type MaskState uint32

// GlobalMask masks every interrupt source on the CPU.
type GlobalMask interface {
	DisableAll() MaskState
	RestoreAll(state MaskState)
}
