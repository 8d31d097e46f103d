/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/go-uart/hw"
	"github.com/allbin/go-uart/hw/devmem"
)

// peekSpan covers the larger of the two register windows.
const peekSpan = 0x20

// uartRegisters names the register windows of both UARTs, by offset.
var uartRegisters = map[string][]struct {
	name   string
	offset uint32
}{
	"nios": {
		{"rxdata", 0x00},
		{"txdata", 0x04},
		{"status", 0x08},
		{"control", 0x0C},
		{"divisor", 0x10},
	},
	"microblaze": {
		{"rx fifo", 0x00},
		{"tx fifo", 0x04},
		{"status", 0x08},
		{"control", 0x0C},
	},
}

// peekCmd represents the peek command
var peekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Dump UART registers through /dev/mem",
	Long: `Map the UART register window at --base through /dev/mem and print its
registers. This needs a Linux host with the FPGA fabric on its physical
address map and permission to open /dev/mem.

Reading the receive data register pops a byte on real hardware, so the data
registers are skipped unless --all is given.

Examples:
  sudo uartsim peek --platform nios --base 0xff200000
  sudo uartsim peek --platform microblaze --base 0x40600000 --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		platform := strings.ToLower(viper.GetString("platform"))
		if platform == "mb" {
			platform = "microblaze"
		}
		regs, ok := uartRegisters[platform]
		if !ok {
			return fmt.Errorf("unknown platform %q", platform)
		}
		all, _ := cmd.Flags().GetBool("all")

		base := uintptr(viper.GetUint64("base"))
		page := uintptr(os.Getpagesize())
		phys := base &^ (page - 1)
		size := (base - phys + peekSpan + page - 1) &^ (page - 1)
		mem, err := devmem.Open(phys, int(size))
		if err != nil {
			return err
		}
		defer mem.Close()

		window := hw.Map(mem, base)
		fmt.Printf("%s UART at 0x%08X\n\n", platform, base)
		for _, r := range regs {
			if !all && (r.offset == 0x00 || r.offset == 0x04) {
				continue
			}
			fmt.Printf("  %-8s +0x%02X  0x%08X\n", r.name, r.offset, window.Read32(r.offset))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(peekCmd)

	peekCmd.Flags().Bool("all", false, "Also read the data registers")
}
