package timer

import (
	"github.com/golang/glog"

	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw"
)

// Xilinx AXI timer, counter 0.
const (
	mbTCSR0 = 0x00
	mbTLR0  = 0x04
	mbTCR0  = 0x08
)

const (
	mbCSRDownCount  = 0x002
	mbCSRAutoReload = 0x010
	mbCSRLoad       = 0x020
	mbCSREnableInt  = 0x040
	mbCSREnable     = 0x080
)

// MicroBlaze is counter 0 of a Xilinx AXI timer. It counts in either
// direction.
type MicroBlaze struct {
	regs hw.Regs
	freq uint32
}

var _ frc.Timer = (*MicroBlaze)(nil)

// NewMicroBlaze programs the timer at base with the default count
// parameters.
func NewMicroBlaze(bus hw.Bus, base uintptr, freq uint32) *MicroBlaze {
	glog.V(1).Infof("timer: microblaze base=0x%08X freq=%d.%06dMHz", base, freq/1000000, freq%1000000)
	t := &MicroBlaze{regs: hw.Map(bus, base), freq: freq}
	_ = t.Setup(frc.DefaultCountParams())
	return t
}

func (t *MicroBlaze) Setup(params frc.CountParams) error {
	t.regs.Write32(mbTCSR0, 0)
	t.regs.Write32(mbTLR0, params.LoadValue)

	var csr uint32
	if params.Reload != frc.ReloadDisable {
		csr |= mbCSRAutoReload
	}
	if params.Method != frc.CountUp {
		csr |= mbCSRDownCount
	}
	t.regs.Write32(mbTCSR0, csr)
	return nil
}

// Start pulses LOAD to copy the load register into the counter, then
// enables counting.
func (t *MicroBlaze) Start() {
	csr := t.regs.Read32(mbTCSR0)
	t.regs.Write32(mbTCSR0, csr|mbCSRLoad)
	t.regs.Write32(mbTCSR0, (csr&^mbCSRLoad)|mbCSREnable)
}

func (t *MicroBlaze) Stop() {
	csr := t.regs.Read32(mbTCSR0)
	t.regs.Write32(mbTCSR0, csr&^(mbCSREnable|mbCSREnableInt))
}

func (t *MicroBlaze) ReadCounter() uint32 {
	return t.regs.Read32(mbTCR0)
}

func (t *MicroBlaze) Frequency() uint32 {
	return t.freq
}

// Close disables the counter.
func (t *MicroBlaze) Close() error {
	t.regs.Write32(mbTCSR0, 0)
	return nil
}
