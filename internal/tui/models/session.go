package models

import (
	"errors"
	"fmt"
	"time"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/hw"
	"github.com/allbin/go-uart/hw/sim"
	"github.com/allbin/go-uart/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// Wire is the simulated UART underneath the transport.
type Wire interface {
	Receive(data ...byte)
	InjectFault(f sim.Fault)
	Stall(on bool)
	SetLoopback(on bool)
	Sent() []byte
}

// Session couples a transport to the simulated board it runs on and turns
// what happens on the board into byte log entries. It is driven from the
// bubbletea update loop only.
type Session struct {
	name  string
	board *sim.Board
	u     uart.Transport
	wire  Wire
	irq   hw.IRQ

	origin   uint64
	reported int
	remote   []byte
	errors   uart.LineError

	stalled  bool
	loopback bool
	paused   bool

	inputMode InputMode
}

func NewSession(name string, board *sim.Board, u uart.Transport, wire Wire, irq hw.IRQ) *Session {
	return &Session{
		name:     name,
		board:    board,
		u:        u,
		wire:     wire,
		irq:      irq,
		origin:   board.Clock.Ticks(),
		reported: len(wire.Sent()),
	}
}

func (s *Session) Name() string {
	return s.name
}

func (s *Session) Transport() uart.Transport {
	return s.u
}

func (s *Session) Status() uart.Status {
	return s.u.Status()
}

// Elapsed is simulated time since the session started.
func (s *Session) Elapsed() time.Duration {
	ticks := s.board.Clock.Ticks() - s.origin
	return time.Duration(float64(ticks) / float64(s.board.Clock.Frequency()) * float64(time.Second))
}

func (s *Session) entry(data []byte) components.DataReceivedMsg {
	return components.DataReceivedMsg{At: s.Elapsed(), Data: data}
}

func (s *Session) note(format string, args ...any) components.DataReceivedMsg {
	e := s.entry(nil)
	e.Note = fmt.Sprintf(format, args...)
	return e
}

// Step runs the board for the given number of frame periods and reports
// what left the wire, what was received and any newly latched errors.
// Bytes from the far end arrive one per frame.
func (s *Session) Step(frames int) []components.DataReceivedMsg {
	if s.paused {
		return nil
	}

	frame := uint64(s.u.FramePeriodUsec())
	for i := 0; i < frames; i++ {
		if len(s.remote) > 0 {
			s.wire.Receive(s.remote[0])
			s.remote = s.remote[1:]
		}
		s.board.RunUsec(frame)
		if !s.irq.Valid() {
			s.u.Service()
		}
	}

	var out []components.DataReceivedMsg
	if sent := s.wire.Sent(); len(sent) > s.reported {
		e := s.entry(append([]byte(nil), sent[s.reported:]...))
		e.IsTX = true
		e.Status = components.TxWritten
		out = append(out, e)
		s.reported = len(sent)
	}

	var rx []byte
	for {
		b, err := s.u.Get()
		if err != nil {
			break
		}
		rx = append(rx, b)
	}
	errs := s.u.LineErrors()
	if len(rx) > 0 {
		e := s.entry(rx)
		e.Errors = errs &^ s.errors
		out = append(out, e)
	} else if errs&^s.errors != 0 {
		e := s.note("line error latched")
		e.Errors = errs &^ s.errors
		out = append(out, e)
	}
	s.errors = errs
	return out
}

// Send queues data on the transport. When the queue cannot take all of it,
// as many bytes as fit are queued one at a time.
func (s *Session) Send(data []byte) components.DataReceivedMsg {
	e := s.entry(data)
	e.IsTX = true

	err := s.u.Write(data)
	switch {
	case err == nil:
		e.Status = components.TxQueued
		return e
	case !errors.Is(err, uart.ErrTxBufferFull):
		e.Status = components.TxRejected
		e.Note = err.Error()
		return e
	}

	n := 0
	for ; n < len(data); n++ {
		if s.u.Put(data[n]) != nil {
			break
		}
	}
	if n == 0 {
		e.Status = components.TxRejected
		return e
	}
	e.Data = data[:n]
	e.Status = components.TxPartial
	return e
}

// Remote makes the far end send data, one byte per frame.
func (s *Session) Remote(data []byte) {
	s.remote = append(s.remote, data...)
}

// Flush waits for the transport to drain, in simulated time.
func (s *Session) Flush() error {
	return s.u.Flush()
}

// ClearErrors empties both queues and the latched errors.
func (s *Session) ClearErrors() {
	s.u.Clear()
	s.errors = 0
}

func (s *Session) Inject(f sim.Fault) {
	s.wire.InjectFault(f)
}

func (s *Session) ToggleStall() bool {
	s.stalled = !s.stalled
	s.wire.Stall(s.stalled)
	return s.stalled
}

func (s *Session) ToggleLoopback() bool {
	s.loopback = !s.loopback
	s.wire.SetLoopback(s.loopback)
	return s.loopback
}

func (s *Session) TogglePaused() bool {
	s.paused = !s.paused
	return s.paused
}

func (s *Session) Flags() (stalled, loopback, paused bool) {
	return s.stalled, s.loopback, s.paused
}

func (s *Session) GetInputMode() InputMode {
	return s.inputMode
}

func (s *Session) SetInputMode(mode InputMode) {
	s.inputMode = mode
}

func (s *Session) IsInInsertMode() bool {
	return s.inputMode == InputModeInsert
}

func (s *Session) Close() error {
	return s.u.Close()
}
