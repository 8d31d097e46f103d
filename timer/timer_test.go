package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw/sim"
)

const timerBase = 0x4000

func TestNiosSetupProgramsPeriod(t *testing.T) {
	b := sim.NewBoard(50000000)
	regs := b.AddRegisterFile(timerBase, 0x20)
	tm := NewNios(b.Bus, timerBase, 50000000, b.IntC)

	assert.Equal(t, uint32(0xFFFF), regs.Get(niosPeriodL))
	assert.Equal(t, uint32(0xFFFF), regs.Get(niosPeriodH))
	assert.Equal(t, uint32(niosControlStop), regs.Get(niosControl))

	require.NoError(t, tm.Setup(frc.CountParams{Method: frc.CountDown, Reload: frc.ReloadDisable, LoadValue: 0x12345678}))
	assert.Equal(t, uint32(0x5678), regs.Get(niosPeriodL))
	assert.Equal(t, uint32(0x1234), regs.Get(niosPeriodH))

	tm.Start()
	assert.Equal(t, uint32(niosControlStart), regs.Get(niosControl), "one-shot start")

	require.NoError(t, tm.Setup(frc.DefaultCountParams()))
	tm.Start()
	assert.Equal(t, uint32(niosControlCont|niosControlStart), regs.Get(niosControl))
	tm.Stop()
	assert.Equal(t, uint32(niosControlCont|niosControlStop), regs.Get(niosControl))
	assert.Equal(t, uint32(50000000), tm.Frequency())
}

func TestNiosRejectsCountUp(t *testing.T) {
	b := sim.NewBoard(50000000)
	b.AddRegisterFile(timerBase, 0x20)
	tm := NewNios(b.Bus, timerBase, 50000000, nil)
	assert.ErrorIs(t, tm.Setup(frc.CountParams{Method: frc.CountUp, LoadValue: 0xFFFFFFFF}), ErrUnsupportedMethod)
}

func TestNiosSnapshotReadIsMasked(t *testing.T) {
	b := sim.NewBoard(50000000)
	regs := b.AddRegisterFile(timerBase, 0x20)
	tm := NewNios(b.Bus, timerBase, 50000000, b.IntC)

	count := uint32(0xCAFEBABE)
	maskedDuringSnap := false
	regs.OnWrite(niosSnapL, func(uint32) {
		maskedDuringSnap = b.IntC.Masked()
		regs.Set(niosSnapL, count&0xFFFF)
		regs.Set(niosSnapH, count>>16)
	})

	assert.Equal(t, count, tm.ReadCounter())
	assert.True(t, maskedDuringSnap)
	assert.False(t, b.IntC.Masked(), "mask restored")
}

func TestNiosClose(t *testing.T) {
	b := sim.NewBoard(50000000)
	regs := b.AddRegisterFile(timerBase, 0x20)
	tm := NewNios(b.Bus, timerBase, 50000000, nil)
	regs.Set(niosStatus, 1)
	require.NoError(t, tm.Close())
	assert.Zero(t, regs.Get(niosPeriodL))
	assert.Zero(t, regs.Get(niosPeriodH))
	assert.Zero(t, regs.Get(niosStatus))
}

func TestMicroBlazeSetup(t *testing.T) {
	tests := []struct {
		name   string
		params frc.CountParams
		csr    uint32
	}{
		{"down reload", frc.CountParams{Method: frc.CountDown, Reload: frc.ReloadEnable, LoadValue: 0xFFFFFFFF}, mbCSRDownCount | mbCSRAutoReload},
		{"up reload", frc.CountParams{Method: frc.CountUp, Reload: frc.ReloadEnable, LoadValue: 0xFFFFFFFF}, mbCSRAutoReload},
		{"up one-shot", frc.CountParams{Method: frc.CountUp, Reload: frc.ReloadDisable, LoadValue: 1000}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sim.NewBoard(100000000)
			regs := b.AddRegisterFile(timerBase, 0x20)
			tm := NewMicroBlaze(b.Bus, timerBase, 100000000)

			require.NoError(t, tm.Setup(tt.params))
			assert.Equal(t, tt.csr, regs.Get(mbTCSR0))
			assert.Equal(t, tt.params.LoadValue, regs.Get(mbTLR0))

			tm.Start()
			writes := regs.Writes()
			require.GreaterOrEqual(t, len(writes), 2)
			assert.Equal(t, sim.Access{Offset: mbTCSR0, Value: tt.csr | mbCSRLoad}, writes[len(writes)-2])
			assert.Equal(t, tt.csr|mbCSREnable, regs.Get(mbTCSR0))

			tm.Stop()
			assert.Equal(t, tt.csr, regs.Get(mbTCSR0))
		})
	}
}

func TestMicroBlazeReadCounter(t *testing.T) {
	b := sim.NewBoard(100000000)
	regs := b.AddRegisterFile(timerBase, 0x20)
	tm := NewMicroBlaze(b.Bus, timerBase, 100000000)
	regs.Set(mbTCR0, 77)
	assert.Equal(t, uint32(77), tm.ReadCounter())
	require.NoError(t, tm.Close())
	assert.Zero(t, regs.Get(mbTCSR0))
}

func TestMonotonic(t *testing.T) {
	tm := NewMonotonic()
	assert.ErrorIs(t, tm.Setup(frc.DefaultCountParams()), ErrUnsupportedMethod)

	c, err := frc.New(tm, frc.CountUp)
	require.NoError(t, err)

	start := c.Now()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, c.MeasureMsec(start, c.Now()), uint32(2))

	tm.Stop()
	frozen := tm.ReadCounter()
	assert.Equal(t, frozen, tm.ReadCounter())
}
