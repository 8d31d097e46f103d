package uart

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/allbin/go-uart/frc"
)

// Altera Avalon UART registers.
const (
	niosRxData  = 0x00
	niosTxData  = 0x04
	niosStatus  = 0x08
	niosControl = 0x0C
	niosDivisor = 0x10
)

// Status bits. The control register enables the interrupt of the status
// bit at the same position.
const (
	niosPE   = 0x001
	niosFE   = 0x002
	niosROE  = 0x008
	niosTMT  = 0x020
	niosTRDY = 0x040
	niosRRDY = 0x080

	niosErrorMask = niosPE | niosFE | niosROE
)

// Nios drives the Altera Avalon UART of a Nios II system: a single-byte
// receive register, a single-byte transmit holding register and a
// programmable divisor.
type Nios struct {
	*port
	interruptFlags uint32
}

var _ Transport = (*Nios)(nil)

// NewNios constructs the transport and applies the initial line settings.
func NewNios(dev Device, counter *frc.Counter, opts ...Option) (*Nios, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	p, err := newPort(dev, counter, cfg)
	if err != nil {
		return nil, err
	}
	u := &Nios{port: p}
	u.logParameters("NiosII UART")
	if err := u.Setup(cfg.params); err != nil {
		_ = u.release()
		return nil, err
	}
	return u, nil
}

// Setup reprograms the divisor and reinstalls the interrupt handler.
func (u *Nios) Setup(params SerialParams) error {
	if u.closed {
		return ErrClosed
	}
	if err := NiosCapabilities.Validate(params); err != nil {
		glog.Warningf("uart: %v", err)
		return err
	}

	u.disableIRQ()
	u.params = params
	u.framePeriodUsec = params.FramePeriodUsec()

	rate := uint32(params.Bitrate)
	divisor := uint16((u.dev.Freq + rate/2) / rate)
	u.regs.Write32(niosDivisor, uint32(divisor))

	u.clearBuffer()
	u.lastError = 0

	if err := u.setupInterrupt(); err != nil {
		glog.Warningf("uart: nios 0x%08X: %v", u.dev.Base, err)
		return err
	}
	u.enableIRQ()
	glog.V(1).Infof("uart: nios 0x%08X setup %s divisor=%d frame=%dus", u.dev.Base, params, divisor, u.framePeriodUsec)
	return nil
}

func (u *Nios) setupInterrupt() error {
	u.regs.Write32(niosControl, 0)
	u.interruptFlags = niosPE | niosFE | niosROE | niosRRDY

	if err := u.register(u.handleInterrupt); err != nil {
		return err
	}
	u.disableIRQ()

	u.regs.Write32(niosControl, u.interruptFlags)
	u.regs.Write32(niosStatus, 0)
	return nil
}

func (u *Nios) setTxInterrupt(on bool) {
	if on {
		u.interruptFlags |= niosTRDY
	} else {
		u.interruptFlags &^= niosTRDY
	}
	u.regs.Write32(niosControl, u.interruptFlags)
}

func (u *Nios) txReady() bool {
	return u.regs.Read32(niosStatus)&niosTRDY != 0
}

func (u *Nios) Get() (byte, error) {
	return u.get()
}

func (u *Nios) Put(b byte) error {
	if u.closed {
		return ErrClosed
	}
	u.disableIRQ()
	defer u.enableIRQ()

	var err error
	ready := u.txReady()
	switch {
	case ready && u.txQueue.Empty():
		u.regs.Write32(niosTxData, uint32(b))
	case ready:
		u.regs.Write32(niosTxData, uint32(u.txQueue.Front()))
		u.txQueue.Pop()
		u.txQueue.Push(b)
	case !u.txQueue.Full():
		u.txQueue.Push(b)
	default:
		err = ErrTxBufferFull
	}
	u.setTxInterrupt(true)
	return err
}

func (u *Nios) Read(buf []byte) error {
	return u.read(buf)
}

func (u *Nios) Write(data []byte) error {
	if u.closed {
		return ErrClosed
	}
	u.disableIRQ()
	defer u.enableIRQ()
	err := u.enqueue(data)
	u.setTxInterrupt(true)
	return err
}

func (u *Nios) Clear() {
	u.clear()
}

// Flush writes the queue out by polling, then waits for the transmit
// complete bit. Every wait is bounded by one frame period.
func (u *Nios) Flush() error {
	if u.closed {
		return ErrClosed
	}
	u.disableIRQ()
	defer u.enableIRQ()

	for !u.txQueue.Empty() {
		if err := u.waitStatus(niosTRDY); err != nil {
			return err
		}
		u.regs.Write32(niosTxData, uint32(u.txQueue.Front()))
		u.txQueue.Pop()
	}
	if err := u.waitStatus(niosTRDY); err != nil {
		return err
	}
	if err := u.waitStatus(niosTMT); err != nil {
		return err
	}
	u.setTxInterrupt(false)
	return nil
}

func (u *Nios) waitStatus(mask uint32) error {
	err := u.waitFor(func() bool {
		return u.regs.Read32(niosStatus)&mask == mask
	}, u.framePeriodUsec)
	if err != nil {
		glog.Warningf("uart: nios 0x%08X status 0x%03X not ready within %dus", u.dev.Base, mask, u.framePeriodUsec)
		return fmt.Errorf("%w: status 0x%03X", err, mask)
	}
	return nil
}

func (u *Nios) FramePeriodUsec() uint32 {
	return u.framePeriodUsec
}

func (u *Nios) OverrunErrorOccurred() bool {
	return u.lineErrors()&LineErrorOverrun != 0
}

func (u *Nios) FramingErrorOccurred() bool {
	return u.lineErrors()&LineErrorFraming != 0
}

func (u *Nios) ParityErrorOccurred() bool {
	return u.lineErrors()&LineErrorParity != 0
}

func (u *Nios) LineErrors() LineError {
	return u.lineErrors()
}

func (u *Nios) Service() {
	if u.closed {
		return
	}
	u.disableIRQ()
	u.handleInterrupt()
	u.enableIRQ()
}

func (u *Nios) Status() Status {
	if u.closed {
		return u.status(false)
	}
	u.disableIRQ()
	defer u.enableIRQ()
	sending := !u.txQueue.Empty() || u.regs.Read32(niosStatus)&niosTMT == 0
	return u.status(sending)
}

// Close detaches the handler and zeroes the divisor, control and status
// registers.
func (u *Nios) Close() error {
	if u.closed {
		return nil
	}
	u.disableIRQ()
	err := u.register(nil)
	u.regs.Write32(niosDivisor, 0)
	u.regs.Write32(niosControl, 0)
	u.regs.Write32(niosStatus, 0)
	u.interruptFlags = 0
	u.closed = true
	return errors.Join(err, u.release())
}

// handleInterrupt reads status once, latches errors, then services the
// receiver and the transmitter.
func (u *Nios) handleInterrupt() {
	status := u.regs.Read32(niosStatus)

	if status&niosErrorMask != 0 {
		u.lastError |= niosLineErrors(status)
		u.regs.Write32(niosStatus, 0)
	}
	if status&niosRRDY != 0 {
		u.receive(byte(u.regs.Read32(niosRxData)))
	}
	if status&niosTRDY != 0 {
		u.transmitInterrupt()
	}
}

func (u *Nios) transmitInterrupt() {
	if u.txQueue.Empty() {
		u.setTxInterrupt(false)
		return
	}
	u.regs.Write32(niosTxData, uint32(u.txQueue.Front()))
	u.txQueue.Pop()
}

func niosLineErrors(status uint32) LineError {
	var e LineError
	if status&niosPE != 0 {
		e |= LineErrorParity
	}
	if status&niosFE != 0 {
		e |= LineErrorFraming
	}
	if status&niosROE != 0 {
		e |= LineErrorOverrun
	}
	return e
}
