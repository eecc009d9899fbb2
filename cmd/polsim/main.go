// Command polsim simulates the polarization of a solid-state polarized
// target, driven by a run script and optionally synchronized with a
// hardware controller box over a serial link.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "polsim",
		Short: "Polarized target simulator",
		Long: `polsim simulates the time-evolving polarization of a solid-state
polarized target under microwave pumping, beam dose, anneals, and beam
trips. A run script schedules parameter changes and time advances; with a
serial link enabled the run is paced against the wall clock and exchanges
telemetry with the controller box.`,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log verbosity: info, debug, or trace")

	rootCmd.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
