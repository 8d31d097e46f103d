package frc

// CountMethod is the direction a hardware counter moves in.
type CountMethod int

const (
	CountUp CountMethod = iota
	CountDown
)

func (m CountMethod) String() string {
	switch m {
	case CountUp:
		return "up"
	case CountDown:
		return "down"
	default:
		return "unknown"
	}
}

// Reload selects whether the counter restarts from its load value after
// reaching its terminal count.
type Reload int

const (
	ReloadEnable Reload = iota
	ReloadDisable
)

// CountParams configures a hardware counter.
type CountParams struct {
	Method    CountMethod
	Reload    Reload
	LoadValue uint32
}

// DefaultCountParams matches the reset configuration of most interval
// timers: count down, auto reload, full 32-bit range.
func DefaultCountParams() CountParams {
	return CountParams{
		Method:    CountDown,
		Reload:    ReloadEnable,
		LoadValue: 0xFFFFFFFF,
	}
}

// Timer is a hardware counter that the Counter borrows for its lifetime.
type Timer interface {
	Setup(params CountParams) error
	Start()
	Stop()
	ReadCounter() uint32
	Frequency() uint32
}
