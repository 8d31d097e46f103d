package sim

// Fault is a receive line error a test can inject into a UART model.
type Fault uint8

const (
	FaultParity Fault = 1 << iota
	FaultFraming
	FaultOverrun
)

// Avalon UART register map.
const (
	avalonRxData  = 0x00
	avalonTxData  = 0x04
	avalonStatus  = 0x08
	avalonControl = 0x0C
	avalonDivisor = 0x10

	// AvalonSize is the span of the register window.
	AvalonSize = 0x20
)

const (
	avalonPE   = 0x001
	avalonFE   = 0x002
	avalonBRK  = 0x004
	avalonROE  = 0x008
	avalonTOE  = 0x010
	avalonTMT  = 0x020
	avalonTRDY = 0x040
	avalonRRDY = 0x080
	avalonE    = 0x100

	avalonErrors = avalonPE | avalonFE | avalonBRK | avalonROE | avalonTOE
)

// AvalonUART models the Altera Avalon UART: one receive holding register,
// one transmit holding register in front of the shift register, a divisor
// clocked from the simulation clock, and a level interrupt that is the AND
// of status and control.
type AvalonUART struct {
	clock     *Clock
	frameBits uint64

	errors  uint32
	control uint32
	divisor uint32

	rx     byte
	rxFull bool

	shifting  bool
	shiftByte byte
	shiftEnd  uint64
	holding   byte
	holdFull  bool

	stalled  bool
	loopback bool
	sent     []byte
}

var _ Device = (*AvalonUART)(nil)

// NewAvalonUART returns a UART whose bit period is divisor ticks of clock
// and whose frames are frameBits long, start and stop bits included.
func NewAvalonUART(clock *Clock, frameBits int) *AvalonUART {
	return &AvalonUART{clock: clock, frameBits: uint64(frameBits), divisor: 1}
}

func (u *AvalonUART) frameTicks() uint64 {
	d := uint64(u.divisor)
	if d == 0 {
		d = 1
	}
	return d * u.frameBits
}

// FrameTicks returns the time one frame takes on the wire.
func (u *AvalonUART) FrameTicks() uint64 {
	return u.frameTicks()
}

func (u *AvalonUART) sync() {
	if u.stalled {
		return
	}
	now := u.clock.Ticks()
	for u.shifting && now >= u.shiftEnd {
		u.complete(u.shiftByte)
		if u.holdFull {
			u.shiftByte = u.holding
			u.holdFull = false
			u.shiftEnd += u.frameTicks()
		} else {
			u.shifting = false
		}
	}
	if !u.shifting && u.holdFull {
		u.shifting = true
		u.shiftByte = u.holding
		u.holdFull = false
		u.shiftEnd = now + u.frameTicks()
	}
}

func (u *AvalonUART) complete(b byte) {
	u.sent = append(u.sent, b)
	if u.loopback {
		u.receive(b)
	}
}

func (u *AvalonUART) receive(b byte) {
	if u.rxFull {
		u.errors |= avalonROE
		return
	}
	u.rx = b
	u.rxFull = true
}

func (u *AvalonUART) status() uint32 {
	st := u.errors
	if st&avalonErrors != 0 {
		st |= avalonE
	}
	if u.rxFull {
		st |= avalonRRDY
	}
	if !u.stalled && !u.holdFull {
		st |= avalonTRDY
		if !u.shifting {
			st |= avalonTMT
		}
	}
	return st
}

func (u *AvalonUART) Read(offset uint32, width int) uint32 {
	u.sync()
	switch offset {
	case avalonRxData:
		u.rxFull = false
		return uint32(u.rx)
	case avalonStatus:
		return u.status()
	case avalonControl:
		return u.control
	case avalonDivisor:
		return u.divisor
	}
	return 0
}

func (u *AvalonUART) Write(offset uint32, width int, v uint32) {
	u.sync()
	switch offset {
	case avalonTxData:
		u.transmit(byte(v))
	case avalonStatus:
		u.errors = 0
	case avalonControl:
		u.control = v & 0x1FFF
	case avalonDivisor:
		u.divisor = v & 0xFFFF
	}
}

func (u *AvalonUART) transmit(b byte) {
	switch {
	case !u.shifting && !u.stalled:
		u.shifting = true
		u.shiftByte = b
		u.shiftEnd = u.clock.Ticks() + u.frameTicks()
	case !u.holdFull:
		u.holding = b
		u.holdFull = true
	default:
		u.errors |= avalonTOE
	}
}

// Asserted reports the level of the interrupt request output.
func (u *AvalonUART) Asserted() bool {
	u.sync()
	return u.status()&u.control != 0
}

// Receive delivers bytes from the line into the receive holding register.
// A byte arriving while the previous one is unread sets the overrun bit
// and is lost.
func (u *AvalonUART) Receive(data ...byte) {
	u.sync()
	for _, b := range data {
		u.receive(b)
	}
}

// InjectFault latches line errors as if a corrupted frame had arrived.
func (u *AvalonUART) InjectFault(f Fault) {
	if f&FaultParity != 0 {
		u.errors |= avalonPE
	}
	if f&FaultFraming != 0 {
		u.errors |= avalonFE
	}
	if f&FaultOverrun != 0 {
		u.errors |= avalonROE
	}
}

// Stall freezes the transmitter. While stalled it never reports ready and
// bytes in flight do not progress; on release the current frame restarts.
func (u *AvalonUART) Stall(on bool) {
	u.sync()
	if u.stalled && !on && u.shifting {
		u.shiftEnd = u.clock.Ticks() + u.frameTicks()
	}
	u.stalled = on
}

// SetLoopback routes every transmitted byte back into the receiver.
func (u *AvalonUART) SetLoopback(on bool) {
	u.loopback = on
}

// Sent returns the bytes that have completed transmission.
func (u *AvalonUART) Sent() []byte {
	u.sync()
	return u.sent
}

// Divisor returns the programmed baud divisor.
func (u *AvalonUART) Divisor() uint32 {
	return u.divisor
}

// Control returns the interrupt enable mask.
func (u *AvalonUART) Control() uint32 {
	return u.control
}

// Idle reports whether nothing is waiting or shifting.
func (u *AvalonUART) Idle() bool {
	u.sync()
	return !u.shifting && !u.holdFull
}
