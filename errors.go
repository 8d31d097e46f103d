package uart

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	// Configuration errors. Every one of them wraps ErrInvalidConfig.
	ErrInvalidConfig          = errors.New("invalid serial configuration")
	ErrInvalidBitrate         = fmt.Errorf("%w: unsupported bitrate", ErrInvalidConfig)
	ErrInvalidDataBits        = fmt.Errorf("%w: unsupported data bits", ErrInvalidConfig)
	ErrInvalidParity          = fmt.Errorf("%w: unsupported parity", ErrInvalidConfig)
	ErrInvalidStopBits        = fmt.Errorf("%w: unsupported stop bits", ErrInvalidConfig)
	ErrFlowControlUnsupported = fmt.Errorf("%w: flow control is not supported", ErrInvalidConfig)
	ErrInvalidBufferSize      = fmt.Errorf("%w: buffer size must be positive", ErrInvalidConfig)

	// Backpressure
	ErrNoData       = errors.New("not enough received data")
	ErrTxBufferFull = errors.New("transmit buffer full")

	// Hardware stall
	ErrFlushTimeout = errors.New("timed out waiting for transmitter")

	ErrClosed            = errors.New("uart is closed")
	ErrInterruptRegister = errors.New("interrupt handler registration failed")
)
