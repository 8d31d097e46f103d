// Package timer drives the hardware counters a frc.Counter runs on.
package timer

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw"
)

// ErrUnsupportedMethod is returned by Setup for a counting direction the
// hardware cannot do.
var ErrUnsupportedMethod = errors.New("timer: unsupported count method")

// Altera Avalon interval timer registers.
const (
	niosStatus  = 0x00
	niosControl = 0x04
	niosPeriodL = 0x08
	niosPeriodH = 0x0C
	niosSnapL   = 0x10
	niosSnapH   = 0x14
)

const (
	niosControlITO   = 0x1
	niosControlCont  = 0x2
	niosControlStart = 0x4
	niosControlStop  = 0x8
)

// Nios is the Altera Avalon interval timer of a Nios II system. It only
// counts down.
type Nios struct {
	regs    hw.Regs
	freq    uint32
	mask    hw.GlobalMask
	control uint32
}

var _ frc.Timer = (*Nios)(nil)

// NewNios programs the timer at base with the default count parameters.
// The snapshot read in ReadCounter runs under mask; a nil mask skips it.
func NewNios(bus hw.Bus, base uintptr, freq uint32, mask hw.GlobalMask) *Nios {
	glog.V(1).Infof("timer: nios base=0x%08X freq=%d.%06dMHz", base, freq/1000000, freq%1000000)
	t := &Nios{regs: hw.Map(bus, base), freq: freq, mask: mask}
	_ = t.Setup(frc.DefaultCountParams())
	return t
}

// Setup stops the timer and loads the period. Counting up fails with
// ErrUnsupportedMethod.
func (t *Nios) Setup(params frc.CountParams) error {
	if params.Method == frc.CountUp {
		return fmt.Errorf("%w: nios timer counts down only", ErrUnsupportedMethod)
	}
	t.regs.Write32(niosControl, niosControlStop)
	t.regs.Write32(niosPeriodL, params.LoadValue&0xFFFF)
	t.regs.Write32(niosPeriodH, params.LoadValue>>16)

	t.control = 0
	if params.Reload != frc.ReloadDisable {
		t.control = niosControlCont
	}
	return nil
}

func (t *Nios) Start() {
	t.regs.Write32(niosControl, t.control|niosControlStart)
}

func (t *Nios) Stop() {
	t.regs.Write32(niosControl, t.control|niosControlStop)
}

// ReadCounter latches the count into the snapshot registers and reads both
// halves with every interrupt masked, so no other reader can relatch in
// between.
func (t *Nios) ReadCounter() uint32 {
	var state hw.MaskState
	if t.mask != nil {
		state = t.mask.DisableAll()
	}
	t.regs.Write32(niosSnapL, 0)
	v := (t.regs.Read32(niosSnapH)&0xFFFF)<<16 | t.regs.Read32(niosSnapL)&0xFFFF
	if t.mask != nil {
		t.mask.RestoreAll(state)
	}
	return v
}

func (t *Nios) Frequency() uint32 {
	return t.freq
}

// Close stops the timer and clears its period and status.
func (t *Nios) Close() error {
	t.regs.Write32(niosControl, niosControlStop)
	t.regs.Write32(niosPeriodL, 0)
	t.regs.Write32(niosPeriodH, 0)
	t.regs.Write32(niosStatus, 0)
	return nil
}
