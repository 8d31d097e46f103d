package uart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/allbin/go-uart/alloc"
	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw"
	"github.com/allbin/go-uart/ringbuf"
)

// Transport is an interrupt-driven UART with software transmit and receive
// queues.
type Transport interface {
	// Setup validates and applies line settings. Both queues and the
	// latched line errors are cleared.
	Setup(params SerialParams) error

	// Get pops one received byte. It returns ErrNoData when nothing has
	// been received.
	Get() (byte, error)
	// Put queues one byte, writing it straight to the hardware when the
	// transmitter is free. It returns ErrTxBufferFull when the hardware is
	// busy and the queue has no room.
	Put(b byte) error
	// Read fills buf from the receive queue, or returns ErrNoData without
	// consuming anything when fewer than len(buf) bytes are queued.
	Read(buf []byte) error
	// Write queues all of data, or returns ErrTxBufferFull without queueing
	// anything when there is not room for all of it.
	Write(data []byte) error

	// Clear drops both queues and resets the latched line errors.
	Clear()
	// Flush blocks until the transmit queue has drained and the hardware
	// has finished sending. ErrFlushTimeout reports a stalled transmitter.
	Flush() error

	FramePeriodUsec() uint32
	OverrunErrorOccurred() bool
	FramingErrorOccurred() bool
	ParityErrorOccurred() bool
	LineErrors() LineError

	// Service runs the interrupt handler once from foreground context. It
	// is how a transport without an interrupt line is driven.
	Service()
	Status() Status
	Close() error
}

// LineError is a set of receive errors latched by the interrupt handler.
type LineError uint8

const (
	LineErrorParity LineError = 1 << iota
	LineErrorFraming
	LineErrorOverrun
)

func (e LineError) String() string {
	if e == 0 {
		return "none"
	}
	var names []string
	if e&LineErrorParity != 0 {
		names = append(names, "parity")
	}
	if e&LineErrorFraming != 0 {
		names = append(names, "framing")
	}
	if e&LineErrorOverrun != 0 {
		names = append(names, "overrun")
	}
	return strings.Join(names, "|")
}

// State summarizes what a transport is doing.
type State int

const (
	StateIdle State = iota
	StateTransmitting
	StateErrorLatched
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTransmitting:
		return "transmitting"
	case StateErrorLatched:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a snapshot of a transport's queues and flags.
type Status struct {
	Params       SerialParams
	TxQueued     int
	TxCapacity   int
	RxQueued     int
	RxCapacity   int
	Transmitting bool
	Errors       LineError
	Closed       bool
}

// State derives the coarse state. Latched errors take precedence.
func (s Status) State() State {
	switch {
	case s.Errors != 0:
		return StateErrorLatched
	case s.Transmitting:
		return StateTransmitting
	default:
		return StateIdle
	}
}

// Device locates a UART: its registers, its input clock and its interrupt
// line. IntC may be nil when IRQ is hw.NoIRQ.
type Device struct {
	Bus  hw.Bus
	Base uintptr
	Freq uint32
	IRQ  hw.IRQ
	IntC hw.InterruptController
}

func (d Device) validate() error {
	if d.Bus == nil {
		return fmt.Errorf("%w: no register bus", ErrInvalidConfig)
	}
	if d.Freq == 0 {
		return fmt.Errorf("%w: zero clock frequency", ErrInvalidConfig)
	}
	if d.IRQ.Valid() && d.IntC == nil {
		return fmt.Errorf("%w: %s has no interrupt controller", ErrInvalidConfig, d.IRQ)
	}
	return nil
}

const (
	DefaultTxBufferSize = 64
	DefaultRxBufferSize = 64
)

type config struct {
	txSize    int
	rxSize    int
	allocator alloc.Allocator
	params    SerialParams
}

// Option is a functional option for constructing a transport
type Option func(*config) error

func defaultConfig() config {
	return config{
		txSize:    DefaultTxBufferSize,
		rxSize:    DefaultRxBufferSize,
		allocator: &alloc.Heap{},
		params:    DefaultParams(),
	}
}

// WithTxBufferSize sets the capacity of the transmit queue
func WithTxBufferSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: tx %d", ErrInvalidBufferSize, n)
		}
		c.txSize = n
		return nil
	}
}

// WithRxBufferSize sets the capacity of the receive queue
func WithRxBufferSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: rx %d", ErrInvalidBufferSize, n)
		}
		c.rxSize = n
		return nil
	}
}

// WithAllocator sets where queue storage comes from
func WithAllocator(a alloc.Allocator) Option {
	return func(c *config) error {
		if a == nil {
			return fmt.Errorf("%w: nil allocator", ErrInvalidConfig)
		}
		c.allocator = a
		return nil
	}
}

// WithSerialParams sets the line settings applied at construction
func WithSerialParams(p SerialParams) Option {
	return func(c *config) error {
		c.params = p
		return nil
	}
}

// port is the state shared by both UART implementations: the queues, the
// latched errors and the per-device critical section.
type port struct {
	dev     Device
	regs    hw.Regs
	counter *frc.Counter
	alloc   alloc.Allocator

	txStore []byte
	rxStore []byte
	txQueue *ringbuf.Buffer
	rxQueue *ringbuf.Buffer

	lastError       LineError
	framePeriodUsec uint32
	params          SerialParams
	closed          bool
}

func newPort(dev Device, counter *frc.Counter, cfg config) (*port, error) {
	if err := dev.validate(); err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, fmt.Errorf("%w: no free-run counter", ErrInvalidConfig)
	}
	txStore, err := cfg.allocator.Allocate(cfg.txSize)
	if err != nil {
		return nil, fmt.Errorf("allocating tx buffer: %w", err)
	}
	rxStore, err := cfg.allocator.Allocate(cfg.rxSize)
	if err != nil {
		_ = cfg.allocator.Deallocate(txStore)
		return nil, fmt.Errorf("allocating rx buffer: %w", err)
	}
	return &port{
		dev:     dev,
		regs:    hw.Map(dev.Bus, dev.Base),
		counter: counter,
		alloc:   cfg.allocator,
		txStore: txStore,
		rxStore: rxStore,
		txQueue: ringbuf.NewWithStorage(txStore),
		rxQueue: ringbuf.NewWithStorage(rxStore),
	}, nil
}

func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}

func (p *port) logParameters(name string) {
	if !glog.V(1) {
		return
	}
	glog.Infof("<%s parameters>", name)
	glog.Infof("  BASE ADDR    : [H'%08X]", p.dev.Base)
	glog.Infof("  FREQ         : [%d.%06dMHz]", p.dev.Freq/1000000, p.dev.Freq%1000000)
	glog.Infof("  IRQ          : [%s]", p.dev.IRQ)
	glog.Infof("  TX BUFF SIZE : [%d]", p.txQueue.MaxSize())
	glog.Infof("  RX BUFF SIZE : [%d]", p.rxQueue.MaxSize())
}

// disableIRQ and enableIRQ bracket every foreground access to state the
// interrupt handler also touches. Only this device's line is masked.
func (p *port) disableIRQ() {
	if p.dev.IRQ.Valid() {
		p.dev.IntC.Disable(p.dev.IRQ)
	}
}

func (p *port) enableIRQ() {
	if p.dev.IRQ.Valid() {
		p.dev.IntC.Enable(p.dev.IRQ)
	}
}

func (p *port) register(h hw.Handler) error {
	if !p.dev.IRQ.Valid() {
		return nil
	}
	if err := p.dev.IntC.Register(p.dev.IRQ, h); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInterruptRegister, p.dev.IRQ, err)
	}
	return nil
}

func (p *port) clearBuffer() {
	p.txQueue.Clear()
	p.rxQueue.Clear()
}

func (p *port) get() (byte, error) {
	if p.closed {
		return 0, ErrClosed
	}
	p.disableIRQ()
	defer p.enableIRQ()
	if p.rxQueue.Empty() {
		return 0, ErrNoData
	}
	b := p.rxQueue.Front()
	p.rxQueue.Pop()
	return b, nil
}

func (p *port) read(buf []byte) error {
	if p.closed {
		return ErrClosed
	}
	p.disableIRQ()
	defer p.enableIRQ()
	if p.rxQueue.Size() < len(buf) {
		return ErrNoData
	}
	for i := range buf {
		buf[i] = p.rxQueue.Front()
		p.rxQueue.Pop()
	}
	return nil
}

// enqueue pushes all of data, or nothing. The caller holds the critical
// section.
func (p *port) enqueue(data []byte) error {
	if p.txQueue.AvailableSize() < len(data) {
		return ErrTxBufferFull
	}
	for _, b := range data {
		p.txQueue.Push(b)
	}
	return nil
}

// receive moves one byte from the hardware into the receive queue. When the
// queue is full the byte is still read, so the hardware keeps going, and
// dropped as an overrun.
func (p *port) receive(b byte) {
	if p.rxQueue.Full() {
		p.lastError |= LineErrorOverrun
		return
	}
	p.rxQueue.Push(b)
}

func (p *port) clear() {
	if p.closed {
		return
	}
	p.disableIRQ()
	p.clearBuffer()
	p.lastError = 0
	p.enableIRQ()
}

func (p *port) lineErrors() LineError {
	if p.closed {
		return 0
	}
	p.disableIRQ()
	e := p.lastError
	p.enableIRQ()
	return e
}

// waitFor spins until ready reports true or timeoutUsec passes. A condition
// that turns true exactly as the deadline expires still counts as ready.
func (p *port) waitFor(ready func() bool, timeoutUsec uint32) error {
	base := p.counter.Now()
	limit := p.counter.UsecToCount(timeoutUsec)
	for !ready() {
		if p.counter.Timeout(base, limit) {
			if ready() {
				return nil
			}
			return ErrFlushTimeout
		}
	}
	return nil
}

func (p *port) status(transmitting bool) Status {
	return Status{
		Params:       p.params,
		TxQueued:     p.txQueue.Size(),
		TxCapacity:   p.txQueue.MaxSize(),
		RxQueued:     p.rxQueue.Size(),
		RxCapacity:   p.rxQueue.MaxSize(),
		Transmitting: transmitting,
		Errors:       p.lastError,
		Closed:       p.closed,
	}
}

// release returns the queue storage. Allocators that never free are not an
// error here.
func (p *port) release() error {
	var errs []error
	for _, b := range [][]byte{p.txStore, p.rxStore} {
		if err := p.alloc.Deallocate(b); err != nil && !errors.Is(err, alloc.ErrFreeUnsupported) {
			errs = append(errs, err)
		}
	}
	p.txStore, p.rxStore = nil, nil
	return errors.Join(errs...)
}
