/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	uart "github.com/allbin/go-uart"
	"github.com/allbin/go-uart/hw/sim"
	"github.com/allbin/go-uart/internal/tui/components"
)

var (
	loopbackHex   bool
	loopbackFault string
)

// loopbackCmd represents the loopback command
var loopbackCmd = &cobra.Command{
	Use:   "loopback <data>",
	Short: "Send data through a looped-back simulated UART",
	Long: `Send data through the configured transport with the simulated UART's
transmit line wired to its receive line, then read it back.

Data larger than the transmit queue is fed in as space frees up. A fault can
be injected halfway through to show how line errors are latched without
aborting the transfer.

Examples:
  uartsim loopback "hello world"
  uartsim loopback --hex "48 65 6C 6C 6F"
  uartsim loopback --platform microblaze --fault overrun "0123456789"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := parsePayload(strings.Join(args, " "), loopbackHex)
		if err != nil {
			return err
		}
		fault, err := parseFault(loopbackFault)
		if err != nil {
			return err
		}

		t, err := newTarget()
		if err != nil {
			return err
		}
		defer t.Close()
		t.dev.SetLoopback(true)

		got, err := roundTrip(t, data, fault)
		formatter := components.NewDataFormatter(true, true)
		fmt.Println(formatter.FormatMessage(components.DataReceivedMsg{Timestamp: time.Now(), Data: data, IsTX: true, Status: components.TxWritten}))
		fmt.Println(formatter.FormatMessage(components.DataReceivedMsg{Timestamp: time.Now(), Data: got}))
		if err != nil {
			return err
		}

		st := t.u.Status()
		fmt.Printf("\nState: %s, line errors: %s\n", st.State(), t.u.LineErrors())
		if !bytes.Equal(data, got) {
			return fmt.Errorf("received %d of %d bytes intact", len(got), len(data))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loopbackCmd)

	loopbackCmd.Flags().BoolVarP(&loopbackHex, "hex", "x", false, "Interpret data as hex bytes")
	loopbackCmd.Flags().StringVar(&loopbackFault, "fault", "", "Inject a line fault halfway: parity, framing or overrun")
}

// roundTrip writes data as fast as the transmit queue accepts it and
// collects what comes back until the line has been quiet for a few frames.
func roundTrip(t *target, data []byte, fault sim.Fault) ([]byte, error) {
	var got []byte
	pending := data
	injected := fault == 0
	quiet := 0

	for quiet < 4 {
		if len(pending) > 0 {
			st := t.u.Status()
			n := min(st.TxCapacity-st.TxQueued, len(pending))
			if n > 0 {
				if err := t.u.Write(pending[:n]); err != nil && !errors.Is(err, uart.ErrTxBufferFull) {
					return got, err
				}
				pending = pending[n:]
			}
		}

		t.run(1)
		if !injected && len(got) >= len(data)/2 {
			glog.V(1).Infof("injecting fault %d after %d bytes", fault, len(got))
			t.dev.InjectFault(fault)
			injected = true
		}

		n := len(got)
		for {
			b, err := t.u.Get()
			if errors.Is(err, uart.ErrNoData) {
				break
			}
			got = append(got, b)
		}
		if len(got) == n && len(pending) == 0 {
			quiet++
		} else {
			quiet = 0
		}
	}
	return got, t.u.Flush()
}

func parsePayload(s string, isHex bool) ([]byte, error) {
	if !isHex {
		return []byte(s), nil
	}
	clean := strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

func parseFault(s string) (sim.Fault, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "parity":
		return sim.FaultParity, nil
	case "framing":
		return sim.FaultFraming, nil
	case "overrun":
		return sim.FaultOverrun, nil
	default:
		return 0, fmt.Errorf("unknown fault %q", s)
	}
}
