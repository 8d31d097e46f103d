package frc_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw/sim"
)

func newCounter(t *testing.T, freq uint32, method frc.CountMethod) (*frc.Counter, *sim.Clock) {
	t.Helper()
	clock := sim.NewClock(freq)
	clock.SetStep(0)
	c, err := frc.New(clock, method)
	require.NoError(t, err)
	return c, clock
}

func TestNewRejectsSlowTimer(t *testing.T) {
	_, err := frc.New(sim.NewClock(999999), frc.CountUp)
	assert.ErrorIs(t, err, frc.ErrFrequencyTooLow)
}

func TestSetupDeferredToFirstUse(t *testing.T) {
	c, clock := newCounter(t, 50000000, frc.CountDown)
	assert.False(t, clock.Running())

	c.Now()
	require.True(t, clock.Running())
	assert.Equal(t, frc.CountParams{Method: frc.CountDown, Reload: frc.ReloadEnable, LoadValue: math.MaxUint32}, clock.Params())

	clock.Advance(5)
	assert.Equal(t, uint32(math.MaxUint32-5), c.Now(), "second use must not reprogram the timer")
}

type refusingTimer struct{ sim.Clock }

func (refusingTimer) Setup(frc.CountParams) error { return errors.New("unsupported") }

func TestSetupFailureIsFatal(t *testing.T) {
	rt := &refusingTimer{Clock: *sim.NewClock(1000000)}
	c, err := frc.New(rt, frc.CountUp)
	require.NoError(t, err)
	assert.Panics(t, func() { c.Now() })
}

func TestDiffIsWrapInsensitive(t *testing.T) {
	tests := []struct {
		name   string
		method frc.CountMethod
	}{
		{"up", frc.CountUp},
		{"down", frc.CountDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock := newCounter(t, 1000000, tt.method)
			c.Now()
			for _, elapsed := range []uint64{0, 1, 0x0F, 0x10, 0x11, 0x1000, 0x7FFFFFFF} {
				clock.SetRaw(0xFFFFFFF0)
				start := c.Now()
				clock.Advance(elapsed)
				end := c.Now()
				assert.Equal(t, uint32(elapsed), c.Diff(start, end), "elapsed %d", elapsed)

				clock.SetRaw(0x1000)
				start = c.Now()
				clock.Advance(elapsed)
				end = c.Now()
				assert.Equal(t, uint32(elapsed), c.Diff(start, end), "elapsed %d without wrap", elapsed)
			}
		})
	}
}

func TestDiffDirection(t *testing.T) {
	up, _ := newCounter(t, 1000000, frc.CountUp)
	down, _ := newCounter(t, 1000000, frc.CountDown)

	assert.Equal(t, uint32(3), up.Diff(0xFFFFFFFE, 1))
	assert.Equal(t, uint32(3), down.Diff(1, 0xFFFFFFFE))
	assert.Equal(t, frc.CountUp, up.Method())
	assert.Equal(t, frc.CountDown, down.Method())
}

func TestTimeout(t *testing.T) {
	c, clock := newCounter(t, 50000000, frc.CountDown)
	c.Now()
	clock.SetRaw(5)

	base := c.Now()
	const limit = 100
	assert.False(t, c.Timeout(base, limit), "no time has passed")

	clock.Advance(limit - 1)
	assert.False(t, c.Timeout(base, limit))

	clock.Advance(1)
	assert.True(t, c.Timeout(base, limit))

	clock.Advance(1000)
	assert.True(t, c.Timeout(base, limit))
}

func TestConversionsRoundUp(t *testing.T) {
	tests := []struct {
		freq uint32
		usec uint32
		msec uint32
		nsec uint32
		want [3]uint32
	}{
		// ceil(f/976562)=52, ceil(f/1e6)=50, ceil(f/1e3)=50000
		{50000000, 3, 2, 1000, [3]uint32{150, 100000, 51}},
		// 100MHz: 103, 100, 100000
		{100000000, 1, 1, 10, [3]uint32{100, 100000, 2}},
		// 1MHz: 2, 1, 1000
		{1000000, 7, 3, 1, [3]uint32{7, 3000, 1}},
	}
	for _, tt := range tests {
		c, _ := newCounter(t, tt.freq, frc.CountUp)
		assert.Equal(t, tt.want[0], c.UsecToCount(tt.usec), "usec at %d", tt.freq)
		assert.Equal(t, tt.want[1], c.MsecToCount(tt.msec), "msec at %d", tt.freq)
		assert.Equal(t, tt.want[2], c.NsecToCount(tt.nsec), "nsec at %d", tt.freq)
		assert.Equal(t, tt.freq, c.Frequency())
	}
}

func TestConversionOverflowPanics(t *testing.T) {
	c, _ := newCounter(t, 50000000, frc.CountUp)
	assert.Panics(t, func() { c.UsecToCount(math.MaxUint32 / 50) })
	assert.Panics(t, func() { c.MsecToCount(math.MaxUint32 / 50000) })
	assert.Panics(t, func() { c.NsecToCount(math.MaxUint32) })
	assert.Panics(t, func() { c.WaitMsec(math.MaxUint32) })
	assert.NotPanics(t, func() { c.UsecToCount(math.MaxUint32/50 - 1) })
}

func TestMeasure(t *testing.T) {
	c, _ := newCounter(t, 50000000, frc.CountUp)

	assert.Equal(t, uint32(1), c.MeasureUsec(0, 50))
	assert.Equal(t, uint32(2), c.MeasureUsec(0, 51))
	assert.Equal(t, uint32(1), c.MeasureMsec(0, 1))
	assert.Equal(t, uint32(3), c.MeasureMsec(0xFFFFFFFF-49999, 100000))
	assert.Equal(t, uint32(0), c.MeasureNsec(7, 7))

	// unit1024Nsec is 51 at 50MHz: 51 counts are 1024ns.
	assert.Equal(t, uint32(1024), c.MeasureNsec(0, 51))
	// past 0xFFC00000 counts the result is computed in 1024ns steps.
	big := uint32(0xFFC00000)
	assert.Equal(t, uint32(((uint64(big)+50)/51)<<10), c.MeasureNsec(0, big))
}

func TestWaitSpinsAtLeastTheRequestedTime(t *testing.T) {
	tests := []struct {
		name string
		wait func(c *frc.Counter)
		min  uint64
	}{
		{"usec", func(c *frc.Counter) { c.WaitUsec(20) }, 20 * 50},
		{"msec", func(c *frc.Counter) { c.WaitMsec(1) }, 50000},
		{"nsec", func(c *frc.Counter) { c.WaitNsec(500) }, 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := sim.NewClock(50000000)
			clock.SetStep(7)
			c, err := frc.New(clock, frc.CountDown)
			require.NoError(t, err)
			c.Now()

			before := clock.Ticks()
			tt.wait(c)
			elapsed := clock.Ticks() - before
			assert.GreaterOrEqual(t, elapsed, tt.min)
			assert.Less(t, elapsed, tt.min+3*7)
		})
	}
}
