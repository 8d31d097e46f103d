package uart

import "fmt"

// Bitrate is a line rate in bits per second.
type Bitrate uint32

const (
	Bitrate110    Bitrate = 110
	Bitrate300    Bitrate = 300
	Bitrate600    Bitrate = 600
	Bitrate1200   Bitrate = 1200
	Bitrate2400   Bitrate = 2400
	Bitrate4800   Bitrate = 4800
	Bitrate9600   Bitrate = 9600
	Bitrate14400  Bitrate = 14400
	Bitrate19200  Bitrate = 19200
	Bitrate38400  Bitrate = 38400
	Bitrate57600  Bitrate = 57600
	Bitrate115200 Bitrate = 115200
	Bitrate230400 Bitrate = 230400
	Bitrate460800 Bitrate = 460800
	Bitrate921600 Bitrate = 921600
)

// Bitrates lists every rate a SerialParams may carry. Each transport
// accepts a subset.
var Bitrates = []Bitrate{
	Bitrate110, Bitrate300, Bitrate600, Bitrate1200, Bitrate2400, Bitrate4800,
	Bitrate9600, Bitrate14400, Bitrate19200, Bitrate38400, Bitrate57600, Bitrate115200,
	Bitrate230400, Bitrate460800, Bitrate921600,
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

// FlowControl represents the flow control mode. Only FlowControlNone is
// accepted by the transports.
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlHardware
	FlowControlXonXoff
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlHardware:
		return "hardware"
	case FlowControlXonXoff:
		return "xon/xoff"
	default:
		return fmt.Sprintf("FlowControl(%d)", int(f))
	}
}

// SerialParams holds the line settings of a UART.
type SerialParams struct {
	Bitrate     Bitrate
	DataBits    int
	Parity      Parity
	StopBits    int
	FlowControl FlowControl
}

// ParamOption is a functional option for building SerialParams
type ParamOption func(*SerialParams) error

// DefaultParams returns 115200 8N1 without flow control
func DefaultParams() SerialParams {
	return SerialParams{
		Bitrate:     Bitrate115200,
		DataBits:    8,
		Parity:      ParityNone,
		StopBits:    1,
		FlowControl: FlowControlNone,
	}
}

// NewSerialParams applies opts on top of DefaultParams.
func NewSerialParams(opts ...ParamOption) (SerialParams, error) {
	p := DefaultParams()
	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return SerialParams{}, err
		}
	}
	return p, nil
}

// WithBitrate sets the bitrate
func WithBitrate(rate Bitrate) ParamOption {
	return func(p *SerialParams) error {
		for _, r := range Bitrates {
			if r == rate {
				p.Bitrate = rate
				return nil
			}
		}
		return fmt.Errorf("%w: %dbps", ErrInvalidBitrate, rate)
	}
}

// WithDataBits sets the number of data bits (5 to 9)
func WithDataBits(bits int) ParamOption {
	return func(p *SerialParams) error {
		if bits < 5 || bits > 9 {
			return fmt.Errorf("%w: %d", ErrInvalidDataBits, bits)
		}
		p.DataBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) ParamOption {
	return func(p *SerialParams) error {
		if parity < ParityNone || parity > ParityEven {
			return fmt.Errorf("%w: %s", ErrInvalidParity, parity)
		}
		p.Parity = parity
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) ParamOption {
	return func(p *SerialParams) error {
		if bits != 1 && bits != 2 {
			return fmt.Errorf("%w: %d", ErrInvalidStopBits, bits)
		}
		p.StopBits = bits
		return nil
	}
}

// WithFlowControl sets the flow control mode. Anything other than
// FlowControlNone is rejected later by Setup.
func WithFlowControl(fc FlowControl) ParamOption {
	return func(p *SerialParams) error {
		p.FlowControl = fc
		return nil
	}
}

// FrameBits returns the bits in one frame: start, data, parity and stop.
func (p SerialParams) FrameBits() uint32 {
	bits := 1 + uint32(p.DataBits) + uint32(p.StopBits)
	if p.Parity != ParityNone {
		bits++
	}
	return bits
}

// FramePeriodUsec returns the time to send one frame, rounded up to whole
// microseconds.
func (p SerialParams) FramePeriodUsec() uint32 {
	rate := uint32(p.Bitrate)
	return (1000000*p.FrameBits() + rate - 1) / rate
}

func (p SerialParams) String() string {
	parity := "N"
	switch p.Parity {
	case ParityOdd:
		parity = "O"
	case ParityEven:
		parity = "E"
	}
	s := fmt.Sprintf("%d %d%s%d", p.Bitrate, p.DataBits, parity, p.StopBits)
	if p.FlowControl != FlowControlNone {
		s += " flow=" + p.FlowControl.String()
	}
	return s
}

// Capabilities is the set of line settings a UART implementation accepts.
type Capabilities struct {
	Name     string
	Bitrates []Bitrate
	DataBits []int
	Parities []Parity
	StopBits []int
}

// Validate checks p against the allow-list. Flow control is never
// supported.
func (c Capabilities) Validate(p SerialParams) error {
	if !contains(c.Bitrates, p.Bitrate) {
		return fmt.Errorf("%s: %w: %dbps", c.Name, ErrInvalidBitrate, p.Bitrate)
	}
	if !contains(c.DataBits, p.DataBits) {
		return fmt.Errorf("%s: %w: %dbit", c.Name, ErrInvalidDataBits, p.DataBits)
	}
	if !contains(c.Parities, p.Parity) {
		return fmt.Errorf("%s: %w: %s", c.Name, ErrInvalidParity, p.Parity)
	}
	if !contains(c.StopBits, p.StopBits) {
		return fmt.Errorf("%s: %w: %dbit", c.Name, ErrInvalidStopBits, p.StopBits)
	}
	if p.FlowControl != FlowControlNone {
		return fmt.Errorf("%s: %w: %s", c.Name, ErrFlowControlUnsupported, p.FlowControl)
	}
	return nil
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

var allParities = []Parity{ParityNone, ParityOdd, ParityEven}

// NiosCapabilities are the settings of the Altera Avalon UART.
var NiosCapabilities = Capabilities{
	Name:     "nios uart",
	Bitrates: []Bitrate{Bitrate9600, Bitrate19200, Bitrate38400, Bitrate57600, Bitrate115200},
	DataBits: []int{7, 8},
	Parities: allParities,
	StopBits: []int{1, 2},
}

// MicroBlazeCapabilities are the settings of the Xilinx UART Lite.
var MicroBlazeCapabilities = Capabilities{
	Name:     "microblaze uart",
	Bitrates: []Bitrate{Bitrate9600, Bitrate19200, Bitrate38400, Bitrate57600, Bitrate115200, Bitrate230400},
	DataBits: []int{5, 6, 7, 8},
	Parities: allParities,
	StopBits: []int{1, 2},
}
