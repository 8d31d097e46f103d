package sim

import "github.com/allbin/go-uart/hw"

// Board wires a clock, a bus and an interrupt controller together.
type Board struct {
	Clock *Clock
	Bus   *Bus
	IntC  *IntC

	// Quantum is the largest step Run advances time by before delivering
	// pending interrupts.
	Quantum uint64
}

// NewBoard returns an empty board clocked at freq Hz with a one
// microsecond quantum.
func NewBoard(freq uint32) *Board {
	q := uint64(freq) / 1000000
	if q == 0 {
		q = 1
	}
	return &Board{
		Clock:   NewClock(freq),
		Bus:     NewBus(),
		IntC:    NewIntC(),
		Quantum: q,
	}
}

// AddAvalonUART maps an Avalon UART at base and connects it to irq.
func (b *Board) AddAvalonUART(base uintptr, irq hw.IRQ, frameBits int) *AvalonUART {
	u := NewAvalonUART(b.Clock, frameBits)
	b.Bus.Map(base, AvalonSize, u)
	if irq.Valid() {
		b.IntC.Connect(irq, u)
	}
	return u
}

// AddUARTLite maps a UART Lite at base and connects it to irq.
func (b *Board) AddUARTLite(base uintptr, irq hw.IRQ, bitrate uint32, frameBits int) *UARTLite {
	u := NewUARTLite(b.Clock, bitrate, frameBits)
	b.Bus.Map(base, UARTLiteSize, u)
	if irq.Valid() {
		b.IntC.Connect(irq, u)
	}
	return u
}

// AddRegisterFile maps plain registers at base.
func (b *Board) AddRegisterFile(base uintptr, size uint32) *RegisterFile {
	r := NewRegisterFile(size)
	b.Bus.Map(base, size, r)
	return r
}

// Run advances time by ticks, delivering interrupts after every quantum.
func (b *Board) Run(ticks uint64) {
	for ticks > 0 {
		step := b.Quantum
		if step > ticks {
			step = ticks
		}
		b.Clock.Advance(step)
		b.IntC.Dispatch()
		ticks -= step
	}
}

// RunUsec advances time by usec microseconds.
func (b *Board) RunUsec(usec uint64) {
	b.Run(b.Clock.UsecToTicks(usec))
}
