// Package frc turns a free-running hardware counter into a monotonic time
// source.
//
// All elapsed-time math is two's-complement subtraction on the raw 32-bit
// counter value, adjusted for the counting direction, so results stay
// correct across a wrap as long as the true elapsed count is below 2^32.
//
//	counter, err := frc.New(timer, frc.CountDown)
//
//	// wait
//	counter.WaitUsec(5)
//
//	// timeout
//	base := counter.Now()
//	limit := counter.MsecToCount(100)
//	for !done() {
//	    if counter.Timeout(base, limit) {
//	        break
//	    }
//	}
//
//	// measure
//	start := counter.Now()
//	work()
//	elapsed := counter.MeasureMsec(start, counter.Now())
//
// Conversions that would overflow the internal 32-bit multiply are
// precondition violations and panic.
package frc

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/golang/glog"
)

// hz1024Nsec is the frequency whose period is 1024ns, so counts per 1024ns
// can be derived without floating point and converted back with a shift.
const hz1024Nsec = 976562

// ErrFrequencyTooLow is returned for timers slower than 1MHz; microsecond
// resolution would be lost.
var ErrFrequencyTooLow = errors.New("frc: timer frequency below 1MHz")

// Counter measures time on a borrowed free-running Timer.
type Counter struct {
	timer  Timer
	method CountMethod
	once   sync.Once

	countsPer1024Nsec uint32
	countsPerUsec     uint32
	countsPerMsec     uint32

	unit1024Nsec uint32
	unitUsec     uint32
	unitMsec     uint32
}

// New derives the scaling constants for t. The timer is programmed to free
// run over its full range on first use and is never stopped by the Counter.
// Only one Counter may own a given hardware timer.
func New(t Timer, method CountMethod) (*Counter, error) {
	freq := t.Frequency()
	if freq < 1000000 {
		return nil, fmt.Errorf("%w: %d Hz", ErrFrequencyTooLow, freq)
	}
	return &Counter{
		timer:             t,
		method:            method,
		countsPer1024Nsec: ceilDiv(freq, hz1024Nsec),
		countsPerUsec:     ceilDiv(freq, 1000000),
		countsPerMsec:     ceilDiv(freq, 1000),
		unit1024Nsec:      freq / hz1024Nsec,
		unitUsec:          freq / 1000000,
		unitMsec:          freq / 1000,
	}, nil
}

func ceilDiv(n, d uint32) uint32 {
	return uint32((uint64(n) + uint64(d) - 1) / uint64(d))
}

func (c *Counter) start() {
	c.once.Do(func() {
		params := CountParams{
			Method:    c.method,
			Reload:    ReloadEnable,
			LoadValue: math.MaxUint32,
		}
		if err := c.timer.Setup(params); err != nil {
			panic(fmt.Sprintf("frc: free-run timer setup (%s): %v", c.method, err))
		}
		c.timer.Start()
		glog.V(1).Infof("frc: free-run counter started freq=%dHz method=%s", c.timer.Frequency(), c.method)
	})
}

// Method reports the counting direction.
func (c *Counter) Method() CountMethod {
	return c.method
}

// Frequency reports the timer frequency in Hz.
func (c *Counter) Frequency() uint32 {
	return c.timer.Frequency()
}

// Diff returns the elapsed count from start to end, modulo 2^32.
func (c *Counter) Diff(start, end uint32) uint32 {
	if c.method == CountUp {
		return end - start
	}
	return start - end
}

// Now reads the raw counter.
func (c *Counter) Now() uint32 {
	c.start()
	return c.timer.ReadCounter()
}

// NsecToCount converts nsec to counts, rounding up.
func (c *Counter) NsecToCount(nsec uint32) uint32 {
	if nsec >= (math.MaxUint32-(1024-1))/c.countsPer1024Nsec {
		panic(fmt.Sprintf("frc: %dns overflows count conversion", nsec))
	}
	return ((c.countsPer1024Nsec * nsec) + (1024 - 1)) >> 10
}

// UsecToCount converts usec to counts, rounding up.
func (c *Counter) UsecToCount(usec uint32) uint32 {
	if usec >= math.MaxUint32/c.countsPerUsec {
		panic(fmt.Sprintf("frc: %dus overflows count conversion", usec))
	}
	return c.countsPerUsec * usec
}

// MsecToCount converts msec to counts, rounding up.
func (c *Counter) MsecToCount(msec uint32) uint32 {
	if msec >= math.MaxUint32/c.countsPerMsec {
		panic(fmt.Sprintf("frc: %dms overflows count conversion", msec))
	}
	return c.countsPerMsec * msec
}

// Timeout reports whether at least timeoutCount counts have elapsed since
// base.
func (c *Counter) Timeout(base, timeoutCount uint32) bool {
	return c.Diff(base, c.Now()) >= timeoutCount
}

func (c *Counter) spin(count uint32) {
	base := c.Now()
	for c.Diff(base, c.timer.ReadCounter()) < count {
	}
}

// WaitNsec busy-waits for at least nsec. It blocks the caller entirely.
func (c *Counter) WaitNsec(nsec uint32) {
	c.spin(c.NsecToCount(nsec))
}

// WaitUsec busy-waits for at least usec.
func (c *Counter) WaitUsec(usec uint32) {
	c.spin(c.UsecToCount(usec))
}

// WaitMsec busy-waits for at least msec.
func (c *Counter) WaitMsec(msec uint32) {
	c.spin(c.MsecToCount(msec))
}

// MeasureNsec converts the counts between start and end to nanoseconds,
// rounding up.
func (c *Counter) MeasureNsec(start, end uint32) uint32 {
	diff := uint64(c.Diff(start, end))
	unit := uint64(c.unit1024Nsec)
	if diff&0xFFC00000 != 0 {
		return uint32(((diff + (unit - 1)) / unit) << 10)
	}
	return uint32(((diff << 10) + (unit - 1)) / unit)
}

// MeasureUsec converts the counts between start and end to microseconds,
// rounding up.
func (c *Counter) MeasureUsec(start, end uint32) uint32 {
	diff := uint64(c.Diff(start, end))
	unit := uint64(c.unitUsec)
	return uint32((diff + (unit - 1)) / unit)
}

// MeasureMsec converts the counts between start and end to milliseconds,
// rounding up.
func (c *Counter) MeasureMsec(start, end uint32) uint32 {
	diff := uint64(c.Diff(start, end))
	unit := uint64(c.unitMsec)
	return uint32((diff + (unit - 1)) / unit)
}
