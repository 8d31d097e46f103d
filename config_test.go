package uart

import (
	"errors"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	if p.Bitrate != Bitrate115200 {
		t.Errorf("Expected Bitrate 115200, got %d", p.Bitrate)
	}
	if p.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", p.DataBits)
	}
	if p.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", p.StopBits)
	}
	if p.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", p.Parity)
	}
	if p.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", p.FlowControl)
	}
	if p.String() != "115200 8N1" {
		t.Errorf("Expected 115200 8N1, got %q", p.String())
	}
}

func TestParamOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     ParamOption
		wantErr error
	}{
		{"bitrate 9600", WithBitrate(Bitrate9600), nil},
		{"bitrate 12345", WithBitrate(12345), ErrInvalidBitrate},
		{"databits 5", WithDataBits(5), nil},
		{"databits 9", WithDataBits(9), nil},
		{"databits 4", WithDataBits(4), ErrInvalidDataBits},
		{"databits 10", WithDataBits(10), ErrInvalidDataBits},
		{"parity even", WithParity(ParityEven), nil},
		{"parity 7", WithParity(Parity(7)), ErrInvalidParity},
		{"stopbits 2", WithStopBits(2), nil},
		{"stopbits 3", WithStopBits(3), ErrInvalidStopBits},
		{"flow hardware", WithFlowControl(FlowControlHardware), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSerialParams(tt.opt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewSerialParams(%s) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestFramePeriodUsec(t *testing.T) {
	tests := []struct {
		name   string
		params SerialParams
		bits   uint32
		want   uint32
	}{
		{"115200 8N1", SerialParams{Bitrate: Bitrate115200, DataBits: 8, Parity: ParityNone, StopBits: 1}, 10, 87},
		{"9600 8N1", SerialParams{Bitrate: Bitrate9600, DataBits: 8, Parity: ParityNone, StopBits: 1}, 10, 1042},
		{"9600 7E2", SerialParams{Bitrate: Bitrate9600, DataBits: 7, Parity: ParityEven, StopBits: 2}, 11, 1146},
		{"230400 5O1", SerialParams{Bitrate: Bitrate230400, DataBits: 5, Parity: ParityOdd, StopBits: 1}, 8, 35},
		{"110 8N2", SerialParams{Bitrate: Bitrate110, DataBits: 8, Parity: ParityNone, StopBits: 2}, 11, 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.FrameBits(); got != tt.bits {
				t.Errorf("FrameBits() = %d, want %d", got, tt.bits)
			}
			if got := tt.params.FramePeriodUsec(); got != tt.want {
				t.Errorf("FramePeriodUsec() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCapabilitiesValidate(t *testing.T) {
	base := DefaultParams()
	with := func(f func(*SerialParams)) SerialParams {
		p := base
		f(&p)
		return p
	}

	tests := []struct {
		name    string
		caps    Capabilities
		params  SerialParams
		wantErr error
	}{
		{"nios default", NiosCapabilities, base, nil},
		{"nios 230400", NiosCapabilities, with(func(p *SerialParams) { p.Bitrate = Bitrate230400 }), ErrInvalidBitrate},
		{"nios 5 bits", NiosCapabilities, with(func(p *SerialParams) { p.DataBits = 5 }), ErrInvalidDataBits},
		{"nios 9 bits", NiosCapabilities, with(func(p *SerialParams) { p.DataBits = 9 }), ErrInvalidDataBits},
		{"nios odd 2 stop", NiosCapabilities, with(func(p *SerialParams) { p.Parity = ParityOdd; p.StopBits = 2 }), nil},
		{"nios xon/xoff", NiosCapabilities, with(func(p *SerialParams) { p.FlowControl = FlowControlXonXoff }), ErrFlowControlUnsupported},
		{"microblaze 230400", MicroBlazeCapabilities, with(func(p *SerialParams) { p.Bitrate = Bitrate230400 }), nil},
		{"microblaze 460800", MicroBlazeCapabilities, with(func(p *SerialParams) { p.Bitrate = Bitrate460800 }), ErrInvalidBitrate},
		{"microblaze 5 bits", MicroBlazeCapabilities, with(func(p *SerialParams) { p.DataBits = 5 }), nil},
		{"microblaze 3 stop", MicroBlazeCapabilities, with(func(p *SerialParams) { p.StopBits = 3 }), ErrInvalidStopBits},
		{"microblaze hardware flow", MicroBlazeCapabilities, with(func(p *SerialParams) { p.FlowControl = FlowControlHardware }), ErrFlowControlUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.caps.Validate(tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransportOptions(t *testing.T) {
	cfg := defaultConfig()

	if err := WithTxBufferSize(16)(&cfg); err != nil {
		t.Errorf("WithTxBufferSize failed: %v", err)
	}
	if cfg.txSize != 16 {
		t.Errorf("Expected txSize 16, got %d", cfg.txSize)
	}
	if err := WithRxBufferSize(0)(&cfg); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("WithRxBufferSize(0) error = %v, want %v", err, ErrInvalidBufferSize)
	}
	if err := WithAllocator(nil)(&cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("WithAllocator(nil) error = %v, want %v", err, ErrInvalidConfig)
	}
}

func TestLineErrorString(t *testing.T) {
	if s := LineError(0).String(); s != "none" {
		t.Errorf("Expected none, got %q", s)
	}
	if s := (LineErrorParity | LineErrorOverrun).String(); s != "parity|overrun" {
		t.Errorf("Expected parity|overrun, got %q", s)
	}
}
