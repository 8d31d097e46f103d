package sim

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/allbin/go-uart/hw"
)

// Source is an interrupt request output of a device.
type Source interface {
	Asserted() bool
}

// Acknowledger is implemented by sources whose request is latched until
// the controller acknowledges it.
type Acknowledger interface {
	Acknowledge()
}

// maxDispatchRounds bounds Dispatch so a source that never deasserts shows
// up as a storm instead of a hang.
const maxDispatchRounds = 256

var ErrNoLine = errors.New("sim: interrupt line not connected")

type line struct {
	irq       hw.IRQ
	src       Source
	handler   hw.Handler
	enabled   bool
	inService bool

	calls   int
	acks    int
	enables int
}

// IntC is a simulated interrupt controller and global interrupt mask.
type IntC struct {
	lines       map[hw.IRQ]*line
	order       []hw.IRQ
	masked      bool
	dispatching bool
	storms      int
}

var (
	_ hw.InterruptController = (*IntC)(nil)
	_ hw.GlobalMask          = (*IntC)(nil)
)

func NewIntC() *IntC {
	return &IntC{lines: make(map[hw.IRQ]*line)}
}

// Connect wires a device's request output to irq. Lines are dispatched in
// the order they were connected.
func (c *IntC) Connect(irq hw.IRQ, src Source) {
	if l, ok := c.lines[irq]; ok {
		l.src = src
		return
	}
	c.lines[irq] = &line{irq: irq, src: src}
	c.order = append(c.order, irq)
}

func (c *IntC) Register(irq hw.IRQ, h hw.Handler) error {
	l, ok := c.lines[irq]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoLine, irq)
	}
	l.handler = h
	return nil
}

func (c *IntC) Enable(irq hw.IRQ) {
	l, ok := c.lines[irq]
	if !ok {
		return
	}
	l.enabled = true
	l.enables++
	c.Dispatch()
}

func (c *IntC) Disable(irq hw.IRQ) {
	if l, ok := c.lines[irq]; ok {
		l.enabled = false
	}
}

func (c *IntC) Ack(irq hw.IRQ) {
	l, ok := c.lines[irq]
	if !ok {
		return
	}
	l.acks++
	if a, ok := l.src.(Acknowledger); ok {
		a.Acknowledge()
	}
}

func (c *IntC) DisableAll() hw.MaskState {
	var prev hw.MaskState
	if !c.masked {
		prev = 1
	}
	c.masked = true
	return prev
}

func (c *IntC) RestoreAll(state hw.MaskState) {
	c.masked = state == 0
	if !c.masked {
		c.Dispatch()
	}
}

// Dispatch runs the handler of every enabled line whose source is asserted,
// repeating until no request is pending. A line is never re-entered while
// its handler runs, and a nested Dispatch from inside a handler is a no-op.
func (c *IntC) Dispatch() {
	if c.dispatching || c.masked {
		return
	}
	c.dispatching = true
	defer func() { c.dispatching = false }()

	for round := 0; round < maxDispatchRounds; round++ {
		fired := false
		for _, irq := range c.order {
			l := c.lines[irq]
			if !l.enabled || l.inService || l.handler == nil || l.src == nil || !l.src.Asserted() {
				continue
			}
			l.inService = true
			l.calls++
			l.handler()
			l.inService = false
			fired = true
			if c.masked {
				return
			}
		}
		if !fired {
			return
		}
	}
	c.storms++
	glog.Warningf("sim: interrupt storm, gave up after %d dispatch rounds", maxDispatchRounds)
}

// Enabled reports whether irq is enabled at the controller.
func (c *IntC) Enabled(irq hw.IRQ) bool {
	l, ok := c.lines[irq]
	return ok && l.enabled
}

// Registered reports whether irq has a handler installed.
func (c *IntC) Registered(irq hw.IRQ) bool {
	l, ok := c.lines[irq]
	return ok && l.handler != nil
}

// Calls returns how many times the handler of irq has run.
func (c *IntC) Calls(irq hw.IRQ) int {
	if l, ok := c.lines[irq]; ok {
		return l.calls
	}
	return 0
}

// Acks returns how many times irq has been acknowledged.
func (c *IntC) Acks(irq hw.IRQ) int {
	if l, ok := c.lines[irq]; ok {
		return l.acks
	}
	return 0
}

// Enables returns how many times irq has been enabled.
func (c *IntC) Enables(irq hw.IRQ) int {
	if l, ok := c.lines[irq]; ok {
		return l.enables
	}
	return 0
}

// Masked reports whether the global mask is set.
func (c *IntC) Masked() bool {
	return c.masked
}

// Storms returns how many Dispatch calls hit the round limit.
func (c *IntC) Storms() int {
	return c.storms
}
