/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uartsim",
	Short: "Drive the UART transports on simulated or mapped hardware",
	Long: `uartsim exercises the Nios II and MicroBlaze UART transports.

Most commands build a simulated board: a free-running clock, an interrupt
controller and one UART mapped at --base. Board and line settings come from
flags, from a config file (yaml or toml) or from UARTSIM_* environment
variables, in that order of precedence.

Examples:
  uartsim params
  uartsim frame --bitrate 9600 --parity even
  uartsim loopback --platform microblaze "hello world"
  uartsim monitor --irq -1`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog only reads its flags once flag.Parse has run.
		if err := flag.CommandLine.Parse(nil); err != nil {
			return err
		}
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.uartsim.yaml)")

	flags.StringP("platform", "p", "nios", "UART flavour: nios or microblaze")
	flags.Uint64("base", 0x1000, "UART register base address")
	flags.Uint32("freq", 50000000, "UART input clock and free-run counter frequency in Hz")
	flags.Int("irq", 2, "interrupt line, -1 for a device without one")
	flags.Int("tx-buffer", 64, "transmit queue capacity in bytes")
	flags.Int("rx-buffer", 64, "receive queue capacity in bytes")
	flags.Uint32P("bitrate", "b", 115200, "bit rate")
	flags.Int("databits", 8, "data bits per frame")
	flags.String("parity", "none", "parity: none, odd or even")
	flags.Int("stopbits", 1, "stop bits per frame")
	flags.Uint64("step", 1, "clock ticks that elapse on every counter read")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	flags.AddGoFlagSet(flag.CommandLine)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".uartsim")
	}

	viper.SetEnvPrefix("UARTSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
		return nil
	}
	glog.V(1).Infof("using config file %s", viper.ConfigFileUsed())
	return nil
}
