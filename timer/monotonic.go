package timer

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/allbin/go-uart/frc"
)

// Monotonic is a host timer over CLOCK_MONOTONIC. It counts up at 1GHz and
// wraps every 4.29s, which frc tolerates.
type Monotonic struct {
	running bool
	frozen  uint32
}

var _ frc.Timer = (*Monotonic)(nil)

func NewMonotonic() *Monotonic {
	return &Monotonic{}
}

// Setup accepts only up counting over the full 32-bit range.
func (t *Monotonic) Setup(params frc.CountParams) error {
	if params.Method != frc.CountUp {
		return fmt.Errorf("%w: monotonic clock counts up only", ErrUnsupportedMethod)
	}
	if params.LoadValue != 0xFFFFFFFF {
		return fmt.Errorf("%w: monotonic clock has a fixed 32-bit range", ErrUnsupportedMethod)
	}
	return nil
}

func (t *Monotonic) Start() {
	t.running = true
}

func (t *Monotonic) Stop() {
	t.frozen = now()
	t.running = false
}

func (t *Monotonic) ReadCounter() uint32 {
	if !t.running {
		return t.frozen
	}
	return now()
}

func (t *Monotonic) Frequency() uint32 {
	return 1000000000
}

func now() uint32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic(fmt.Sprintf("timer: clock_gettime: %v", err))
	}
	return uint32(uint64(ts.Sec)*1000000000 + uint64(ts.Nsec))
}
