package sim

// UART Lite register map.
const (
	liteRx   = 0x00
	liteTx   = 0x04
	liteStat = 0x08
	liteCtrl = 0x0C

	// UARTLiteSize is the span of the register window.
	UARTLiteSize = 0x10

	// UARTLiteFIFODepth is the depth of both hardware FIFOs.
	UARTLiteFIFODepth = 16
)

const (
	liteRxValid = 0x01
	liteRxFull  = 0x02
	liteTxEmpty = 0x04
	liteTxFull  = 0x08
	liteIntrEn  = 0x10
	liteOverrun = 0x20
	liteFrame   = 0x40
	liteParity  = 0x80
	liteTxReset = 0x01
	liteRxReset = 0x02
	liteEnIntr  = 0x10
	liteErrors  = liteOverrun | liteFrame | liteParity
)

// UARTLite models the Xilinx AXI UART Lite: 16-deep receive and transmit
// FIFOs, a bitrate fixed at build time, and an edge interrupt raised when
// the receive FIFO becomes non-empty or the transmit FIFO becomes empty.
// The request stays latched until the controller acknowledges it.
type UARTLite struct {
	clock      *Clock
	frameTicks uint64

	rx     []byte
	tx     []byte
	errors uint32

	shifting  bool
	shiftByte byte
	shiftEnd  uint64

	intrEnabled bool
	pending     bool

	stalled  bool
	loopback bool
	sent     []byte
}

var _ Device = (*UARTLite)(nil)

// NewUARTLite returns a UART Lite running at bitrate with frameBits per
// frame, timed by clock.
func NewUARTLite(clock *Clock, bitrate uint32, frameBits int) *UARTLite {
	ticks := (uint64(clock.Frequency())*uint64(frameBits) + uint64(bitrate) - 1) / uint64(bitrate)
	return &UARTLite{clock: clock, frameTicks: ticks}
}

// FrameTicks returns the time one frame takes on the wire.
func (u *UARTLite) FrameTicks() uint64 {
	return u.frameTicks
}

func (u *UARTLite) edge() {
	if u.intrEnabled {
		u.pending = true
	}
}

func (u *UARTLite) sync() {
	if u.stalled {
		return
	}
	now := u.clock.Ticks()
	for u.shifting && now >= u.shiftEnd {
		u.complete(u.shiftByte)
		if len(u.tx) > 0 {
			u.shiftByte = u.tx[0]
			u.tx = u.tx[1:]
			u.shiftEnd += u.frameTicks
			if len(u.tx) == 0 {
				u.edge()
			}
		} else {
			u.shifting = false
		}
	}
	if !u.shifting && len(u.tx) > 0 {
		u.shifting = true
		u.shiftByte = u.tx[0]
		u.tx = u.tx[1:]
		u.shiftEnd = now + u.frameTicks
		if len(u.tx) == 0 {
			u.edge()
		}
	}
}

func (u *UARTLite) complete(b byte) {
	u.sent = append(u.sent, b)
	if u.loopback {
		u.receive(b)
	}
}

func (u *UARTLite) receive(b byte) {
	if len(u.rx) >= UARTLiteFIFODepth {
		u.errors |= liteOverrun
		return
	}
	u.rx = append(u.rx, b)
	if len(u.rx) == 1 {
		u.edge()
	}
}

func (u *UARTLite) status() uint32 {
	st := u.errors
	if len(u.rx) > 0 {
		st |= liteRxValid
	}
	if len(u.rx) >= UARTLiteFIFODepth {
		st |= liteRxFull
	}
	if u.stalled || len(u.tx) >= UARTLiteFIFODepth {
		st |= liteTxFull
	}
	if !u.stalled && len(u.tx) == 0 {
		st |= liteTxEmpty
	}
	if u.intrEnabled {
		st |= liteIntrEn
	}
	return st
}

func (u *UARTLite) Read(offset uint32, width int) uint32 {
	u.sync()
	switch offset {
	case liteRx:
		if len(u.rx) == 0 {
			return 0
		}
		b := u.rx[0]
		u.rx = u.rx[1:]
		return uint32(b)
	case liteStat:
		return u.status()
	}
	return 0
}

func (u *UARTLite) Write(offset uint32, width int, v uint32) {
	u.sync()
	switch offset {
	case liteTx:
		u.transmit(byte(v))
	case liteCtrl:
		if v&liteTxReset != 0 {
			u.tx = nil
		}
		if v&liteRxReset != 0 {
			u.rx = nil
			u.errors = 0
		}
		u.intrEnabled = v&liteEnIntr != 0
	}
}

func (u *UARTLite) transmit(b byte) {
	switch {
	case len(u.tx) >= UARTLiteFIFODepth:
	case !u.shifting && !u.stalled:
		u.shifting = true
		u.shiftByte = b
		u.shiftEnd = u.clock.Ticks() + u.frameTicks
	default:
		u.tx = append(u.tx, b)
	}
}

// Asserted reports whether an interrupt request is latched.
func (u *UARTLite) Asserted() bool {
	u.sync()
	return u.pending
}

// Acknowledge clears the latched request.
func (u *UARTLite) Acknowledge() {
	u.pending = false
}

// Receive delivers bytes from the line into the receive FIFO. Bytes that
// find it full set the overrun bit and are lost.
func (u *UARTLite) Receive(data ...byte) {
	u.sync()
	for _, b := range data {
		u.receive(b)
	}
}

// InjectFault latches line errors as if a corrupted frame had arrived.
func (u *UARTLite) InjectFault(f Fault) {
	if f&FaultParity != 0 {
		u.errors |= liteParity
	}
	if f&FaultFraming != 0 {
		u.errors |= liteFrame
	}
	if f&FaultOverrun != 0 {
		u.errors |= liteOverrun
	}
	u.edge()
}

// Stall freezes the transmitter. While stalled the FIFO reports full and
// bytes in flight do not progress; on release the current frame restarts
// and an empty FIFO raises the transmit edge it had been holding back.
func (u *UARTLite) Stall(on bool) {
	u.sync()
	if u.stalled && !on {
		if u.shifting {
			u.shiftEnd = u.clock.Ticks() + u.frameTicks
		}
		if len(u.tx) == 0 {
			u.edge()
		}
	}
	u.stalled = on
}

// SetLoopback routes every transmitted byte back into the receiver.
func (u *UARTLite) SetLoopback(on bool) {
	u.loopback = on
}

// Sent returns the bytes that have completed transmission.
func (u *UARTLite) Sent() []byte {
	u.sync()
	return u.sent
}

// RxLevel returns the number of bytes in the receive FIFO.
func (u *UARTLite) RxLevel() int {
	u.sync()
	return len(u.rx)
}

// InterruptsEnabled reports the device-level interrupt enable.
func (u *UARTLite) InterruptsEnabled() bool {
	return u.intrEnabled
}

// Idle reports whether nothing is queued or shifting.
func (u *UARTLite) Idle() bool {
	u.sync()
	return !u.shifting && len(u.tx) == 0
}
