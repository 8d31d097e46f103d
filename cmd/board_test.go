package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/hw"
	"github.com/allbin/go-uart/hw/sim"
)

// configure sets every board key so tests do not depend on flag defaults.
func configure(t *testing.T, overrides map[string]any) {
	t.Helper()
	settings := map[string]any{
		"platform":  "nios",
		"base":      uint64(0x1000),
		"freq":      uint32(50000000),
		"irq":       2,
		"tx-buffer": 64,
		"rx-buffer": 64,
		"bitrate":   uint32(115200),
		"databits":  8,
		"parity":    "none",
		"stopbits":  1,
		"step":      uint64(1),
	}
	for k, v := range overrides {
		settings[k] = v
	}
	for k, v := range settings {
		viper.Set(k, v)
	}
	t.Cleanup(viper.Reset)
}

func TestParseParity(t *testing.T) {
	tests := []struct {
		in      string
		want    uart.Parity
		wantErr bool
	}{
		{"none", uart.ParityNone, false},
		{"N", uart.ParityNone, false},
		{"odd", uart.ParityOdd, false},
		{"Even", uart.ParityEven, false},
		{"mark", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseParity(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, uart.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNiosDivisor(t *testing.T) {
	d, ok := niosDivisor(50000000, 115200)
	assert.True(t, ok)
	assert.Equal(t, uint32(434), d)

	_, ok = niosDivisor(50000000, 0)
	assert.False(t, ok)
}

func TestParsePayloadAndFault(t *testing.T) {
	data, err := parsePayload("48 65 0x6C:6C 6F", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello"), data)

	_, err = parsePayload("4", true)
	assert.Error(t, err)

	f, err := parseFault("overrun")
	require.NoError(t, err)
	assert.Equal(t, sim.FaultOverrun, f)

	_, err = parseFault("brownout")
	assert.Error(t, err)
}

func TestNewTargetRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"platform", map[string]any{"platform": "z80"}},
		{"parity", map[string]any{"parity": "space"}},
		{"nios bitrate", map[string]any{"bitrate": uint32(230400)}},
		{"microblaze data bits", map[string]any{"platform": "microblaze", "databits": 9}},
		{"buffer", map[string]any{"tx-buffer": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configure(t, tt.overrides)
			_, err := newTarget()
			assert.Error(t, err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		platform string
		irq      int
	}{
		{"nios", 2},
		{"nios", -1},
		{"microblaze", 2},
		{"microblaze", -1},
	}

	// Longer than the transmit queue so it is fed in as space frees up.
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte('a' + i%26)
	}

	for _, tt := range tests {
		t.Run(tt.platform+"/"+configuredName(tt.irq), func(t *testing.T) {
			configure(t, map[string]any{"platform": tt.platform, "irq": tt.irq, "tx-buffer": 16})
			tg, err := newTarget()
			require.NoError(t, err)
			defer tg.Close()
			tg.dev.SetLoopback(true)

			got, err := roundTrip(tg, data, 0)
			require.NoError(t, err)
			assert.Equal(t, data, got)
			assert.Zero(t, tg.u.LineErrors())
		})
	}
}

func TestRoundTripLatchesInjectedFault(t *testing.T) {
	configure(t, nil)
	tg, err := newTarget()
	require.NoError(t, err)
	defer tg.Close()
	tg.dev.SetLoopback(true)

	_, err = roundTrip(tg, []byte("0123456789"), sim.FaultParity)
	require.NoError(t, err)
	assert.True(t, tg.u.ParityErrorOccurred())
	assert.Equal(t, uart.StateErrorLatched, tg.u.Status().State())
}

func TestCapabilitiesTable(t *testing.T) {
	params := uart.DefaultParams()
	params.Bitrate = uart.Bitrate230400
	view := capabilitiesTable(params, uart.NiosCapabilities, uart.MicroBlazeCapabilities).View()
	assert.Contains(t, view, uart.NiosCapabilities.Name)
	assert.Contains(t, view, uart.MicroBlazeCapabilities.Name)
	assert.Contains(t, view, "rejects")
}

func configuredName(irq int) string {
	if irq < 0 {
		return hw.NoIRQ.String()
	}
	return "irq"
}
