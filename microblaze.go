package uart

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/allbin/go-uart/frc"
)

// Xilinx UART Lite registers.
const (
	mbRxFIFO = 0x00
	mbTxFIFO = 0x04
	mbStatus = 0x08
	mbCtrl   = 0x0C
)

const (
	mbSRRxValid   = 0x01
	mbSRTxEmpty   = 0x04
	mbSRTxFull    = 0x08
	mbSROverrun   = 0x20
	mbSRFraming   = 0x40
	mbSRParity    = 0x80
	mbSRErrorMask = mbSROverrun | mbSRFraming | mbSRParity

	mbCRTxReset  = 0x01
	mbCRRxReset  = 0x02
	mbCREnableIn = 0x10

	// mbFIFODepth is the depth of both UART Lite FIFOs.
	mbFIFODepth = 16
)

// MicroBlaze drives the Xilinx UART Lite of a MicroBlaze system. The
// bitrate is fixed when the FPGA is built, so Setup only validates it. The
// device has a single interrupt enable, raised when the receive FIFO gets
// data or the transmit FIFO runs empty; the handler refills the transmit
// FIFO on every call instead of toggling a transmit interrupt.
type MicroBlaze struct {
	*port
}

var _ Transport = (*MicroBlaze)(nil)

// NewMicroBlaze constructs the transport and applies the initial line
// settings.
func NewMicroBlaze(dev Device, counter *frc.Counter, opts ...Option) (*MicroBlaze, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	p, err := newPort(dev, counter, cfg)
	if err != nil {
		return nil, err
	}
	u := &MicroBlaze{port: p}
	u.logParameters("MicroBlaze UART")
	if err := u.Setup(cfg.params); err != nil {
		_ = u.release()
		return nil, err
	}
	return u, nil
}

// Setup resets both hardware FIFOs and reinstalls the interrupt handler.
func (u *MicroBlaze) Setup(params SerialParams) error {
	if u.closed {
		return ErrClosed
	}
	if err := MicroBlazeCapabilities.Validate(params); err != nil {
		glog.Warningf("uart: %v", err)
		return err
	}

	u.disableIRQ()
	u.params = params
	u.framePeriodUsec = params.FramePeriodUsec()

	u.clearBuffer()
	u.lastError = 0

	u.regs.Write32(mbCtrl, 0)
	u.regs.Write32(mbCtrl, mbCRRxReset|mbCRTxReset)
	u.regs.Write32(mbCtrl, mbCREnableIn)
	if err := u.register(u.handleInterrupt); err != nil {
		glog.Warningf("uart: microblaze 0x%08X: %v", u.dev.Base, err)
		return err
	}
	u.enableIRQ()
	glog.V(1).Infof("uart: microblaze 0x%08X setup %s frame=%dus", u.dev.Base, params, u.framePeriodUsec)
	return nil
}

func (u *MicroBlaze) txFull() bool {
	return u.regs.Read32(mbStatus)&mbSRTxFull != 0
}

func (u *MicroBlaze) Get() (byte, error) {
	return u.get()
}

func (u *MicroBlaze) Put(b byte) error {
	if u.closed {
		return ErrClosed
	}
	u.disableIRQ()
	defer u.enableIRQ()

	ready := !u.txFull()
	switch {
	case ready && u.txQueue.Empty():
		u.regs.Write32(mbTxFIFO, uint32(b))
	case ready:
		u.regs.Write32(mbTxFIFO, uint32(u.txQueue.Front()))
		u.txQueue.Pop()
		u.txQueue.Push(b)
	case !u.txQueue.Full():
		u.txQueue.Push(b)
	default:
		return ErrTxBufferFull
	}
	return nil
}

func (u *MicroBlaze) Read(buf []byte) error {
	return u.read(buf)
}

// Write queues data and tops up the transmit FIFO straight away, since
// the device only interrupts when that FIFO runs empty.
func (u *MicroBlaze) Write(data []byte) error {
	if u.closed {
		return ErrClosed
	}
	u.disableIRQ()
	defer u.enableIRQ()
	err := u.enqueue(data)
	u.fillTxFIFO()
	return err
}

func (u *MicroBlaze) Clear() {
	u.clear()
}

// Flush writes the queue out by polling and waits for the transmit FIFO
// to empty. The device has no transmit complete flag, so one more frame
// period is spent for the last byte to leave the shift register.
func (u *MicroBlaze) Flush() error {
	if u.closed {
		return ErrClosed
	}
	u.disableIRQ()
	defer u.enableIRQ()

	for !u.txQueue.Empty() {
		if err := u.wait(mbSRTxFull, 0, u.framePeriodUsec); err != nil {
			return err
		}
		u.regs.Write32(mbTxFIFO, uint32(u.txQueue.Front()))
		u.txQueue.Pop()
	}
	if err := u.wait(mbSRTxEmpty, mbSRTxEmpty, u.framePeriodUsec*mbFIFODepth); err != nil {
		return err
	}
	u.counter.WaitUsec(u.framePeriodUsec)
	return nil
}

// wait spins until the status bits in mask equal want.
func (u *MicroBlaze) wait(mask, want, timeoutUsec uint32) error {
	err := u.waitFor(func() bool {
		return u.regs.Read32(mbStatus)&mask == want
	}, timeoutUsec)
	if err != nil {
		glog.Warningf("uart: microblaze 0x%08X status 0x%02X not 0x%02X within %dus", u.dev.Base, mask, want, timeoutUsec)
		return fmt.Errorf("%w: status 0x%02X", err, mask)
	}
	return nil
}

func (u *MicroBlaze) FramePeriodUsec() uint32 {
	return u.framePeriodUsec
}

func (u *MicroBlaze) OverrunErrorOccurred() bool {
	return u.lineErrors()&LineErrorOverrun != 0
}

func (u *MicroBlaze) FramingErrorOccurred() bool {
	return u.lineErrors()&LineErrorFraming != 0
}

func (u *MicroBlaze) ParityErrorOccurred() bool {
	return u.lineErrors()&LineErrorParity != 0
}

func (u *MicroBlaze) LineErrors() LineError {
	return u.lineErrors()
}

func (u *MicroBlaze) Service() {
	if u.closed {
		return
	}
	u.disableIRQ()
	u.handleInterrupt()
	u.enableIRQ()
}

func (u *MicroBlaze) Status() Status {
	if u.closed {
		return u.status(false)
	}
	u.disableIRQ()
	defer u.enableIRQ()
	sending := !u.txQueue.Empty() || u.regs.Read32(mbStatus)&mbSRTxEmpty == 0
	return u.status(sending)
}

// Close disables the device interrupt and detaches the handler.
func (u *MicroBlaze) Close() error {
	if u.closed {
		return nil
	}
	u.disableIRQ()
	err := u.register(nil)
	u.regs.Write32(mbCtrl, 0)
	u.closed = true
	return errors.Join(err, u.release())
}

// handleInterrupt reads status once. A line error resets the receive FIFO
// and returns without acknowledging, so the controller calls again with a
// clean FIFO.
func (u *MicroBlaze) handleInterrupt() {
	status := u.regs.Read32(mbStatus)

	if status&mbSRErrorMask != 0 {
		u.lastError |= mbLineErrors(status)
		u.regs.Write32(mbCtrl, mbCRRxReset)
		u.regs.Write32(mbCtrl, mbCREnableIn)
		return
	}
	if status&mbSRRxValid != 0 {
		u.drainRxFIFO()
	}
	if status&mbSRTxFull == 0 {
		u.fillTxFIFO()
	}
	if u.dev.IRQ.Valid() {
		u.dev.IntC.Ack(u.dev.IRQ)
	}
}

func (u *MicroBlaze) drainRxFIFO() {
	for i := 0; i < mbFIFODepth; i++ {
		if u.regs.Read32(mbStatus)&mbSRRxValid == 0 {
			return
		}
		u.receive(byte(u.regs.Read32(mbRxFIFO)))
	}
}

func (u *MicroBlaze) fillTxFIFO() {
	for i := 0; i < mbFIFODepth; i++ {
		if u.txQueue.Empty() || u.txFull() {
			return
		}
		u.regs.Write32(mbTxFIFO, uint32(u.txQueue.Front()))
		u.txQueue.Pop()
	}
}

func mbLineErrors(status uint32) LineError {
	var e LineError
	if status&mbSRParity != 0 {
		e |= LineErrorParity
	}
	if status&mbSRFraming != 0 {
		e |= LineErrorFraming
	}
	if status&mbSROverrun != 0 {
		e |= LineErrorOverrun
	}
	return e
}
