/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/go-uart/frc"
	"github.com/allbin/go-uart/timer"
)

var (
	counterWait   time.Duration
	counterRounds int
)

// counterCmd represents the counter command
var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Busy-wait on the host monotonic counter and measure the result",
	Long: `Build a free-run counter over the host's monotonic clock, busy-wait for
the requested time and measure how long the wait really took, both with the
counter itself and with the Go runtime clock.

Examples:
  uartsim counter
  uartsim counter --wait 250us --rounds 10
  uartsim counter --wait 3ms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		counter, err := frc.New(timer.NewMonotonic(), frc.CountUp)
		if err != nil {
			return err
		}

		usec := uint32(counterWait.Microseconds())
		if usec == 0 {
			return fmt.Errorf("wait must be at least 1us, got %s", counterWait)
		}
		fmt.Printf("Counter: %d Hz, %d counts per %s\n\n", counter.Frequency(), counter.UsecToCount(usec), counterWait)

		for i := 0; i < counterRounds; i++ {
			wall := time.Now()
			start := counter.Now()
			counter.WaitUsec(usec)
			end := counter.Now()

			fmt.Printf("  #%-3d counter %6d us  %9d ns   runtime %s\n",
				i+1,
				counter.MeasureUsec(start, end),
				counter.MeasureNsec(start, end),
				time.Since(wall).Round(time.Microsecond))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(counterCmd)

	counterCmd.Flags().DurationVarP(&counterWait, "wait", "w", time.Millisecond, "Time to busy-wait per round")
	counterCmd.Flags().IntVarP(&counterRounds, "rounds", "n", 5, "Number of rounds")
}
