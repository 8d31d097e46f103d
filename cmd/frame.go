/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/hw/sim"
)

// frameCmd represents the frame command
var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Show frame timing for the configured line settings",
	Long: `Show how long one character takes on the wire and what that is in
free-run counter counts. The frame period is the unit every transport
timeout is measured in.

Examples:
  uartsim frame
  uartsim frame --bitrate 9600 --databits 7 --parity even --stopbits 2
  uartsim frame --freq 100000000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := lineParams()
		if err != nil {
			return err
		}
		freq := viper.GetUint32("freq")
		counter, err := frc.New(sim.NewClock(freq), frc.CountDown)
		if err != nil {
			return err
		}

		frame := params.FramePeriodUsec()
		fmt.Printf("Line Settings: %s\n\n", params)
		fmt.Printf("  Frame bits:   %d\n", params.FrameBits())
		fmt.Printf("  Frame period: %d us\n", frame)
		fmt.Printf("  Counter:      %d Hz, %d counts per frame\n", counter.Frequency(), counter.UsecToCount(frame))
		fmt.Printf("  Throughput:   %d bytes/s\n", 1000000/frame)

		if divisor, ok := niosDivisor(freq, uint32(params.Bitrate)); ok {
			fmt.Println("\nNios II (Avalon UART):")
			fmt.Printf("  Divisor:      %d\n", divisor)
			fmt.Printf("  Actual rate:  %d bps\n", freq/divisor)
			fmt.Printf("  Flush bound:  %d us per wait\n", frame)
		}

		fmt.Println("\nMicroBlaze (UART Lite):")
		fmt.Printf("  FIFO depth:   %d\n", sim.UARTLiteFIFODepth)
		fmt.Printf("  Flush bound:  %d us to empty, then %d us\n", frame*sim.UARTLiteFIFODepth, frame)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(frameCmd)
}

func niosDivisor(freq, rate uint32) (uint32, bool) {
	if rate == 0 {
		return 0, false
	}
	d := (freq + rate/2) / rate
	return d, d != 0
}
