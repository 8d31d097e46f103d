/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	uart "github.com/allbin/go-uart"
)

var flushStall bool

// flushCmd represents the flush command
var flushCmd = &cobra.Command{
	Use:   "flush [data]",
	Short: "Flush queued data, optionally against a stalled transmitter",
	Long: `Queue data on the configured transport and flush it, reporting how long
the flush took in simulated time.

With --stall the simulated transmitter never becomes ready again, so the
flush gives up after one frame period without progress and reports the
timeout. The transmitter is then released and the flush retried.

Examples:
  uartsim flush "some data"
  uartsim flush --stall --platform microblaze "some data"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := []byte("The quick brown fox jumps over the lazy dog")
		if len(args) == 1 {
			data = []byte(args[0])
		}

		t, err := newTarget()
		if err != nil {
			return err
		}
		defer t.Close()

		st := t.u.Status()
		if len(data) > st.TxCapacity {
			data = data[:st.TxCapacity]
		}
		if flushStall {
			t.dev.Stall(true)
		}
		if err := t.u.Write(data); err != nil {
			return err
		}
		fmt.Printf("Queued %d bytes, %d waiting in software\n", len(data), t.u.Status().TxQueued)

		err = timedFlush(t)
		if !flushStall {
			return err
		}
		if !errors.Is(err, uart.ErrFlushTimeout) {
			return fmt.Errorf("expected the stalled flush to time out, got %v", err)
		}

		t.dev.Stall(false)
		fmt.Println("Transmitter released")
		return timedFlush(t)
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)

	flushCmd.Flags().BoolVar(&flushStall, "stall", false, "Stall the simulated transmitter before flushing")
}

func timedFlush(t *target) error {
	start := t.counter.Now()
	err := t.u.Flush()
	elapsed := t.counter.MeasureUsec(start, t.counter.Now())

	st := t.u.Status()
	if err != nil {
		fmt.Printf("Flush failed after %d us (%d queued, state %s): %v\n", elapsed, st.TxQueued, st.State(), err)
		return err
	}
	fmt.Printf("Flush completed in %d us, %d bytes on the wire\n", elapsed, len(t.dev.Sent()))
	return nil
}
