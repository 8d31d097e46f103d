package uart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-uart/hw"
	"github.com/allbin/go-uart/hw/sim"
)

func newMicroBlaze(t *testing.T, irq hw.IRQ, opts ...Option) (*sim.Board, *sim.UARTLite, *MicroBlaze) {
	t.Helper()
	h := newMicroBlazeHarness(t, irq, opts...)
	return h.board, h.dev.(*sim.UARTLite), h.u.(*MicroBlaze)
}

func TestMicroBlazeSetup(t *testing.T) {
	b, dev, u := newMicroBlaze(t, uartIRQ)
	assert.True(t, dev.InterruptsEnabled())
	assert.True(t, b.IntC.Registered(uartIRQ))
	assert.True(t, b.IntC.Enabled(uartIRQ))

	params, err := NewSerialParams(WithDataBits(5), WithStopBits(2))
	require.NoError(t, err)
	require.NoError(t, u.Setup(params))
	assert.Equal(t, uint32(70), u.FramePeriodUsec(), "8 bit frames")

	params.DataBits = 9
	assert.ErrorIs(t, u.Setup(params), ErrInvalidDataBits)
}

func TestMicroBlazeSetupResetsFIFOs(t *testing.T) {
	_, dev, u := newMicroBlaze(t, hw.NoIRQ)
	dev.Receive('a', 'b')
	require.Equal(t, 2, dev.RxLevel())

	require.NoError(t, u.Setup(DefaultParams()))
	assert.Zero(t, dev.RxLevel())
	assert.True(t, dev.InterruptsEnabled())
}

func TestMicroBlazePutFastPathBypassesQueue(t *testing.T) {
	b, dev, u := newMicroBlaze(t, uartIRQ)
	for _, c := range []byte("fifo") {
		require.NoError(t, u.Put(c))
	}
	assert.Zero(t, u.Status().TxQueued, "hardware FIFO had room")

	b.RunUsec(5 * uint64(u.FramePeriodUsec()))
	assert.Equal(t, []byte("fifo"), dev.Sent())
}

func TestMicroBlazeWriteRefillsFromInterrupt(t *testing.T) {
	b, dev, u := newMicroBlaze(t, uartIRQ)
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, u.Write(data))
	assert.Equal(t, len(data)-mbFIFODepth, u.Status().TxQueued, "one refill writes at most a FIFO depth")

	calls := b.IntC.Calls(uartIRQ)
	b.RunUsec(uint64(len(data)+2) * uint64(u.FramePeriodUsec()))
	assert.Equal(t, data, dev.Sent())
	assert.Greater(t, b.IntC.Calls(uartIRQ), calls)
}

func TestMicroBlazeErrorResetsReceiveFIFO(t *testing.T) {
	b, dev, u := newMicroBlaze(t, uartIRQ)
	calls, acks := b.IntC.Calls(uartIRQ), b.IntC.Acks(uartIRQ)

	dev.Receive('x')
	dev.InjectFault(sim.FaultFraming)
	b.IntC.Dispatch()

	assert.True(t, u.FramingErrorOccurred())
	assert.Zero(t, u.Status().RxQueued, "the errored round does not drain")
	assert.Zero(t, dev.RxLevel(), "receive FIFO was reset")
	assert.True(t, dev.InterruptsEnabled())
	assert.Equal(t, calls+2, b.IntC.Calls(uartIRQ), "unacknowledged request is serviced again")
	assert.Equal(t, acks+1, b.IntC.Acks(uartIRQ))
}

func TestMicroBlazeDrainsWholeFIFO(t *testing.T) {
	b, dev, u := newMicroBlaze(t, uartIRQ, WithRxBufferSize(32))
	dev.Receive([]byte("sixteen bytes!!!")...)
	b.IntC.Dispatch()
	assert.Equal(t, mbFIFODepth, u.Status().RxQueued)

	buf := make([]byte, mbFIFODepth)
	require.NoError(t, u.Read(buf))
	assert.Equal(t, []byte("sixteen bytes!!!"), buf)
}

func TestMicroBlazeCloseDisablesDevice(t *testing.T) {
	b, dev, u := newMicroBlaze(t, uartIRQ)
	require.NoError(t, u.Close())
	assert.False(t, dev.InterruptsEnabled())
	assert.False(t, b.IntC.Enabled(uartIRQ))
	assert.False(t, b.IntC.Registered(uartIRQ))
}
