package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw"
)

var testIRQ = hw.IRQ{Controller: 0, Line: 2}

func TestClockCountsInBothDirections(t *testing.T) {
	tests := []struct {
		name   string
		method frc.CountMethod
		first  uint32
		second uint32
	}{
		{"up", frc.CountUp, 0, 10},
		{"down", frc.CountDown, 0xFFFFFFFF, 0xFFFFFFFF - 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(50000000)
			c.SetStep(0)
			require.NoError(t, c.Setup(frc.CountParams{Method: tt.method, Reload: frc.ReloadEnable, LoadValue: 0xFFFFFFFF}))
			c.Start()
			assert.Equal(t, tt.first, c.ReadCounter())
			c.Advance(10)
			assert.Equal(t, tt.second, c.ReadCounter())
		})
	}
}

func TestClockStoppedDoesNotCount(t *testing.T) {
	c := NewClock(1000000)
	c.SetStep(0)
	require.NoError(t, c.Setup(frc.CountParams{Method: frc.CountUp, LoadValue: 0xFFFFFFFF}))
	c.Advance(100)
	assert.Equal(t, uint32(0), c.ReadCounter())
	assert.Equal(t, uint64(100), c.Ticks())
}

func TestClockSetRawWraps(t *testing.T) {
	for _, method := range []frc.CountMethod{frc.CountUp, frc.CountDown} {
		c := NewClock(1000000)
		c.SetStep(0)
		require.NoError(t, c.Setup(frc.CountParams{Method: method, LoadValue: 0xFFFFFFFF}))
		c.Start()
		c.Advance(1234)

		c.SetRaw(0xFFFFFFF0)
		assert.Equal(t, uint32(0xFFFFFFF0), c.ReadCounter(), method.String())
		c.Advance(0x20)
		if method == frc.CountUp {
			assert.Equal(t, uint32(0x10), c.ReadCounter())
		} else {
			assert.Equal(t, uint32(0xFFFFFFD0), c.ReadCounter())
		}
	}
}

func TestClockAutoStep(t *testing.T) {
	c := NewClock(1000000)
	c.SetStep(3)
	require.NoError(t, c.Setup(frc.CountParams{Method: frc.CountUp, LoadValue: 0xFFFFFFFF}))
	c.Start()
	assert.Equal(t, uint32(0), c.ReadCounter())
	assert.Equal(t, uint32(3), c.ReadCounter())
	assert.Equal(t, uint64(6), c.Ticks())
}

type levelSource struct{ level bool }

func (s *levelSource) Asserted() bool { return s.level }

func TestIntCDeliversOnEnable(t *testing.T) {
	ic := NewIntC()
	src := &levelSource{level: true}
	ic.Connect(testIRQ, src)

	calls := 0
	require.NoError(t, ic.Register(testIRQ, func() {
		calls++
		src.level = false
	}))
	ic.Dispatch()
	assert.Equal(t, 0, calls, "disabled line must not fire")

	ic.Enable(testIRQ)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, ic.Calls(testIRQ))
}

func TestIntCRegisterUnknownLine(t *testing.T) {
	ic := NewIntC()
	assert.ErrorIs(t, ic.Register(testIRQ, func() {}), ErrNoLine)
}

func TestIntCNoReentry(t *testing.T) {
	ic := NewIntC()
	src := &levelSource{level: true}
	ic.Connect(testIRQ, src)

	depth, maxDepth := 0, 0
	require.NoError(t, ic.Register(testIRQ, func() {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		ic.Disable(testIRQ)
		ic.Enable(testIRQ)
		src.level = false
		depth--
	}))
	ic.Enable(testIRQ)
	assert.Equal(t, 1, maxDepth)
}

func TestIntCStormIsBounded(t *testing.T) {
	ic := NewIntC()
	ic.Connect(testIRQ, &levelSource{level: true})
	require.NoError(t, ic.Register(testIRQ, func() {}))
	ic.Enable(testIRQ)
	assert.Equal(t, maxDispatchRounds, ic.Calls(testIRQ))
	assert.Equal(t, 1, ic.Storms())
}

func TestIntCGlobalMask(t *testing.T) {
	ic := NewIntC()
	src := &levelSource{}
	ic.Connect(testIRQ, src)
	calls := 0
	require.NoError(t, ic.Register(testIRQ, func() { calls++; src.level = false }))
	ic.Enable(testIRQ)

	state := ic.DisableAll()
	inner := ic.DisableAll()
	src.level = true
	ic.Dispatch()
	assert.Equal(t, 0, calls)

	ic.RestoreAll(inner)
	assert.True(t, ic.Masked())
	assert.Equal(t, 0, calls)

	ic.RestoreAll(state)
	assert.False(t, ic.Masked())
	assert.Equal(t, 1, calls)
}

func TestAvalonTransmitTiming(t *testing.T) {
	b := NewBoard(1000000)
	u := b.AddAvalonUART(0x1000, hw.NoIRQ, 10)
	b.Bus.Write32(0x1000+avalonDivisor, 10)
	require.Equal(t, uint64(100), u.FrameTicks())

	b.Bus.Write32(0x1000+avalonTxData, 'a')
	st := b.Bus.Read32(0x1000 + avalonStatus)
	assert.NotZero(t, st&avalonTRDY, "holding register free while first byte shifts")
	assert.Zero(t, st&avalonTMT)

	b.Bus.Write32(0x1000+avalonTxData, 'b')
	assert.Zero(t, b.Bus.Read32(0x1000+avalonStatus)&avalonTRDY)

	b.Bus.Write32(0x1000+avalonTxData, 'c')
	assert.NotZero(t, b.Bus.Read32(0x1000+avalonStatus)&avalonTOE)

	b.Clock.Advance(100)
	assert.Equal(t, []byte("a"), u.Sent())
	b.Clock.Advance(100)
	assert.Equal(t, []byte("ab"), u.Sent())
	assert.NotZero(t, b.Bus.Read32(0x1000+avalonStatus)&avalonTMT)
	assert.True(t, u.Idle())
}

func TestAvalonLevelInterrupt(t *testing.T) {
	b := NewBoard(1000000)
	u := b.AddAvalonUART(0x1000, testIRQ, 10)
	u.Receive(0x42)
	assert.False(t, u.Asserted(), "masked by control")

	b.Bus.Write32(0x1000+avalonControl, avalonRRDY)
	assert.True(t, u.Asserted())
	assert.Equal(t, uint32(0x42), b.Bus.Read32(0x1000+avalonRxData))
	assert.False(t, u.Asserted())

	u.Receive(1, 2)
	assert.NotZero(t, b.Bus.Read32(0x1000+avalonStatus)&(avalonROE|avalonE))
	b.Bus.Write32(0x1000+avalonStatus, 0)
	assert.Zero(t, b.Bus.Read32(0x1000+avalonStatus)&avalonErrors)
}

func TestAvalonStall(t *testing.T) {
	b := NewBoard(1000000)
	u := b.AddAvalonUART(0x1000, hw.NoIRQ, 10)
	b.Bus.Write32(0x1000+avalonDivisor, 10)
	b.Bus.Write32(0x1000+avalonTxData, 'x')

	u.Stall(true)
	b.Clock.Advance(1000)
	assert.Empty(t, u.Sent())
	assert.Zero(t, b.Bus.Read32(0x1000+avalonStatus)&(avalonTRDY|avalonTMT))

	u.Stall(false)
	b.Clock.Advance(100)
	assert.Equal(t, []byte("x"), u.Sent())
}

func TestUARTLiteFIFOAndEdges(t *testing.T) {
	b := NewBoard(1000000)
	u := b.AddUARTLite(0x2000, testIRQ, 100000, 10)
	require.Equal(t, uint64(100), u.FrameTicks())

	b.Bus.Write32(0x2000+liteCtrl, liteEnIntr)
	for i := 0; i < 1+UARTLiteFIFODepth; i++ {
		b.Bus.Write32(0x2000+liteTx, uint32('a'+i))
	}
	st := b.Bus.Read32(0x2000 + liteStat)
	assert.NotZero(t, st&liteTxFull)
	assert.Zero(t, st&liteTxEmpty)
	assert.False(t, u.Asserted())

	b.Clock.Advance(uint64(UARTLiteFIFODepth) * 100)
	assert.True(t, u.Asserted(), "transmit FIFO drained to empty")
	assert.NotZero(t, b.Bus.Read32(0x2000+liteStat)&liteTxEmpty)
	u.Acknowledge()
	assert.False(t, u.Asserted())

	b.Clock.Advance(100)
	assert.Len(t, u.Sent(), 1+UARTLiteFIFODepth)
	assert.True(t, u.Idle())
}

func TestUARTLiteReceiveAndReset(t *testing.T) {
	b := NewBoard(1000000)
	u := b.AddUARTLite(0x2000, testIRQ, 100000, 10)
	b.Bus.Write32(0x2000+liteCtrl, liteEnIntr)

	data := make([]byte, UARTLiteFIFODepth+1)
	u.Receive(data...)
	st := b.Bus.Read32(0x2000 + liteStat)
	assert.NotZero(t, st&liteRxFull)
	assert.NotZero(t, st&liteOverrun)
	assert.True(t, u.Asserted())

	b.Bus.Write32(0x2000+liteCtrl, liteRxReset)
	st = b.Bus.Read32(0x2000 + liteStat)
	assert.Zero(t, st&(liteRxValid|liteErrors|liteIntrEn))
	assert.Equal(t, 0, u.RxLevel())
}

func TestUARTLiteLoopback(t *testing.T) {
	b := NewBoard(1000000)
	u := b.AddUARTLite(0x2000, hw.NoIRQ, 100000, 10)
	u.SetLoopback(true)
	b.Bus.Write32(0x2000+liteTx, 'z')
	b.Clock.Advance(100)
	require.Equal(t, 1, u.RxLevel())
	assert.Equal(t, uint32('z'), b.Bus.Read32(0x2000+liteRx))
}

func TestBusErrors(t *testing.T) {
	b := NewBoard(1000000)
	b.AddRegisterFile(0x3000, 0x10)
	assert.Panics(t, func() { b.Bus.Read32(0x300E) })
	assert.Panics(t, func() { b.Bus.Read8(0x4000) })
	assert.Panics(t, func() { b.AddRegisterFile(0x3008, 0x10) })
}

func TestRegisterFileWidthsAndHooks(t *testing.T) {
	r := NewRegisterFile(8)
	r.Write(0, 4, 0x11223344)
	assert.Equal(t, uint32(0x44), r.Read(0, 1))
	assert.Equal(t, uint32(0x1122), r.Read(2, 2))

	var seen uint32
	r.OnWrite(4, func(v uint32) { seen = v })
	r.OnRead(4, func() uint32 { return 7 })
	r.Write(4, 4, 9)
	assert.Equal(t, uint32(9), seen)
	assert.Equal(t, uint32(7), r.Read(4, 4))
	assert.Equal(t, uint32(9), r.Get(4))
	assert.Equal(t, []Access{{0, 0x11223344}, {4, 9}}, r.Writes())
}
