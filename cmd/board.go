/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw"
	"github.com/allbin/go-uart/hw/sim"
)

// simUART is the part of a simulated UART the commands drive directly.
type simUART interface {
	Receive(data ...byte)
	InjectFault(f sim.Fault)
	Stall(on bool)
	SetLoopback(on bool)
	Sent() []byte
	Idle() bool
	FrameTicks() uint64
}

// target is a simulated board with one UART and the transport driving it.
type target struct {
	platform string
	board    *sim.Board
	counter  *frc.Counter
	dev      simUART
	u        uart.Transport
	irq      hw.IRQ
}

func parseParity(s string) (uart.Parity, error) {
	switch strings.ToLower(s) {
	case "none", "n":
		return uart.ParityNone, nil
	case "odd", "o":
		return uart.ParityOdd, nil
	case "even", "e":
		return uart.ParityEven, nil
	default:
		return 0, fmt.Errorf("%w: %q", uart.ErrInvalidParity, s)
	}
}

// lineParams builds the line settings from flags, config and environment.
func lineParams() (uart.SerialParams, error) {
	parity, err := parseParity(viper.GetString("parity"))
	if err != nil {
		return uart.SerialParams{}, err
	}
	return uart.NewSerialParams(
		uart.WithBitrate(uart.Bitrate(viper.GetUint32("bitrate"))),
		uart.WithDataBits(viper.GetInt("databits")),
		uart.WithParity(parity),
		uart.WithStopBits(viper.GetInt("stopbits")),
	)
}

func configuredIRQ() hw.IRQ {
	line := viper.GetInt("irq")
	if line < 0 {
		return hw.NoIRQ
	}
	return hw.IRQ{Controller: 0, Line: uint32(line)}
}

func capabilitiesFor(platform string) (uart.Capabilities, error) {
	switch strings.ToLower(platform) {
	case "nios":
		return uart.NiosCapabilities, nil
	case "microblaze", "mb":
		return uart.MicroBlazeCapabilities, nil
	default:
		return uart.Capabilities{}, fmt.Errorf("unknown platform %q", platform)
	}
}

// newTarget builds a board for the configured platform and sets the
// transport up with the configured line settings.
func newTarget() (*target, error) {
	params, err := lineParams()
	if err != nil {
		return nil, err
	}

	freq := viper.GetUint32("freq")
	base := uintptr(viper.GetUint64("base"))
	irq := configuredIRQ()
	platform := strings.ToLower(viper.GetString("platform"))
	caps, err := capabilitiesFor(platform)
	if err != nil {
		return nil, err
	}
	if err := caps.Validate(params); err != nil {
		return nil, err
	}

	b := sim.NewBoard(freq)
	b.Clock.SetStep(viper.GetUint64("step"))
	counter, err := frc.New(b.Clock, frc.CountDown)
	if err != nil {
		return nil, err
	}

	dev := uart.Device{Bus: b.Bus, Base: base, Freq: freq, IRQ: irq}
	if irq.Valid() {
		dev.IntC = b.IntC
	}
	opts := []uart.Option{
		uart.WithTxBufferSize(viper.GetInt("tx-buffer")),
		uart.WithRxBufferSize(viper.GetInt("rx-buffer")),
		uart.WithSerialParams(params),
	}

	t := &target{platform: platform, board: b, counter: counter, irq: irq}
	frameBits := int(params.FrameBits())
	switch platform {
	case "nios":
		t.dev = b.AddAvalonUART(base, irq, frameBits)
		t.u, err = uart.NewNios(dev, counter, opts...)
	default:
		t.dev = b.AddUARTLite(base, irq, uint32(params.Bitrate), frameBits)
		t.u, err = uart.NewMicroBlaze(dev, counter, opts...)
	}
	if err != nil {
		return nil, err
	}

	glog.V(1).Infof("%s board: %d Hz, uart at 0x%X, irq %s, %s", platform, freq, base, irq, params)
	return t, nil
}

// run advances the board by the given number of frame periods. A device
// without an interrupt line is serviced after every frame.
func (t *target) run(frames int) {
	frame := uint64(t.u.FramePeriodUsec())
	for i := 0; i < frames; i++ {
		t.board.RunUsec(frame)
		if !t.irq.Valid() {
			t.u.Service()
		}
	}
}

func (t *target) Close() error {
	return t.u.Close()
}
