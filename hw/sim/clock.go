// Package sim models the hardware the drivers talk to, deterministically and
// on a single goroutine: a clock that doubles as a free-running timer, an
// address bus, an interrupt controller, and register-accurate models of the
// Altera Avalon UART and the Xilinx UART Lite.
//
// Devices compute their state lazily from the clock when a register is
// accessed. They never call into the interrupt controller; interrupts are
// delivered when IntC.Dispatch runs, which happens explicitly, on Enable and
// on RestoreAll.
package sim

import (
	"github.com/allbin/go-uart/frc"
)

// Clock is simulated time in ticks of a fixed frequency. It also implements
// frc.Timer, so a Counter can run on it.
//
// Time only moves when Advance is called or when the timer is read: each
// ReadCounter advances the clock by the auto-step, so code spinning on the
// counter makes progress.
type Clock struct {
	freq uint32
	now  uint64
	step uint64

	params  frc.CountParams
	running bool
	count   uint64
	origin  uint64
}

var _ frc.Timer = (*Clock)(nil)

// NewClock returns a stopped clock at freq Hz with an auto-step of one tick
// per counter read.
func NewClock(freq uint32) *Clock {
	return &Clock{
		freq:   freq,
		step:   1,
		params: frc.DefaultCountParams(),
	}
}

// SetStep sets how many ticks each ReadCounter advances the clock.
func (c *Clock) SetStep(ticks uint64) {
	c.step = ticks
}

// Advance moves time forward by ticks.
func (c *Clock) Advance(ticks uint64) {
	c.now += ticks
	if c.running {
		c.count += ticks
	}
}

// Ticks returns the absolute time in ticks since the clock was created.
func (c *Clock) Ticks() uint64 {
	return c.now
}

// UsecToTicks converts microseconds to ticks, rounding up.
func (c *Clock) UsecToTicks(usec uint64) uint64 {
	return (usec*uint64(c.freq) + 999999) / 1000000
}

// SetRaw moves the counter so that the next read, before the auto-step is
// applied, would return v. Wall time is unaffected.
func (c *Clock) SetRaw(v uint32) {
	m := c.modulus()
	var k uint64
	if c.params.Method == frc.CountUp {
		k = uint64(v)
	} else {
		k = uint64(c.params.LoadValue) - uint64(v)
	}
	c.origin = (k%m + m - c.count%m) % m
}

func (c *Clock) modulus() uint64 {
	return uint64(c.params.LoadValue) + 1
}

func (c *Clock) raw() uint32 {
	m := c.modulus()
	k := (c.count + c.origin) % m
	if c.params.Reload == frc.ReloadDisable && c.count+c.origin >= m {
		k = m - 1
	}
	if c.params.Method == frc.CountUp {
		return uint32(k)
	}
	return c.params.LoadValue - uint32(k)
}

// Setup programs the timer and rewinds its count to the load position.
func (c *Clock) Setup(params frc.CountParams) error {
	c.params = params
	c.running = false
	c.count = 0
	c.origin = 0
	return nil
}

func (c *Clock) Start() {
	c.running = true
}

func (c *Clock) Stop() {
	c.running = false
}

// Running reports whether the timer is counting.
func (c *Clock) Running() bool {
	return c.running
}

// Params returns the last programmed counter configuration.
func (c *Clock) Params() frc.CountParams {
	return c.params
}

// ReadCounter returns the raw count and then advances the clock by the
// auto-step.
func (c *Clock) ReadCounter() uint32 {
	v := c.raw()
	c.Advance(c.step)
	return v
}

func (c *Clock) Frequency() uint32 {
	return c.freq
}
