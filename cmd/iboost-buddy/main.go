// Iboost-buddy listens to an iBoost solar water heating system over a
// sub-GHz radio bridge and publishes its readings.
//
// It decodes frames from the main unit, the buddy display and the sender
// CT clamp, keeps the system address, polls the main unit for energy
// totals and sends boost commands on request. Readings are served over an
// HTTP API with Prometheus metrics and a WebSocket stream.
//
// Usage:
//
//	iboost-buddy [command] [flags]
//
// See 'iboost-buddy --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ibuddy/iboost/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "iboost-buddy",
	Short: "iBoost Buddy radio bridge",
	Long: `A radio bridge and protocol engine for iBoost solar immersion controllers.

The 'run' command starts the daemon: it listens to the iBoost main unit,
buddy and sender over a serial SX126x bridge (or a capture file), polls for
energy totals and serves readings over HTTP.

The remaining commands work offline (decode, encode, replay) or talk to a
running daemon (status, boost, scan).`,
	Version:       version.Get().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: "+defaultConfigHint()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
	},
}
