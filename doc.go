// Package uart provides interrupt-driven serial transports for the UARTs of
// small soft-core CPUs: the Altera Avalon UART of a Nios II system and the
// Xilinx UART Lite of a MicroBlaze system.
//
// Each transport owns a bounded transmit queue and a bounded receive queue.
// The interrupt handler moves bytes between those queues and the hardware;
// foreground calls reach the same state only with the device's own
// interrupt line masked, so other devices keep interrupting. No call blocks
// except Flush, and Flush gives up after one frame period without progress.
//
// # Basic Usage
//
// Build a free-run counter once and pass it to every transport:
//
//	tm := timer.NewNios(bus, timerBase, 50000000, intc)
//	counter, err := frc.New(tm, frc.CountDown)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	u, err := uart.NewNios(uart.Device{
//	    Bus:  bus,
//	    Base: uartBase,
//	    Freq: 50000000,
//	    IRQ:  hw.IRQ{Controller: 0, Line: 2},
//	    IntC: intc,
//	}, counter,
//	    uart.WithTxBufferSize(128),
//	    uart.WithRxBufferSize(128),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer u.Close()
//
//	// Non-blocking I/O
//	err = u.Put('A')
//	b, err := u.Get()
//	err = u.Write([]byte("hello"))
//
//	// Wait for everything to leave the wire
//	err = u.Flush()
//
// # Configuration Options
//
// Line settings are built with functional options and validated against the
// transport's allow-list by Setup:
//
//	params, err := uart.NewSerialParams(
//	    uart.WithBitrate(uart.Bitrate57600),
//	    uart.WithParity(uart.ParityEven),
//	)
//	err = u.Setup(params)
//
// Flow control is not supported; any mode other than FlowControlNone fails
// with ErrFlowControlUnsupported.
//
// # Error Handling
//
// Configuration errors wrap ErrInvalidConfig. ErrNoData and ErrTxBufferFull
// signal backpressure and the call may simply be retried. ErrFlushTimeout
// means the transmitter stalled.
//
// Parity, framing and overrun errors are latched by the interrupt handler.
// They never abort a transfer and stay set until Clear or Setup:
//
//	if u.OverrunErrorOccurred() {
//	    u.Clear()
//	}
//
// # Devices Without an Interrupt Line
//
// A Device whose IRQ is hw.NoIRQ has no handler installed. Call Service
// periodically to run the handler from foreground context.
package uart
