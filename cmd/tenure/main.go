package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tenure/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tenure",
	Short: "Region constraint blame and diagnostics toolchain",
	Long:  `tenure explains region (lifetime) inference failures recorded in solver bundles`,
}

// errDiagnostics signals that diagnostics were already printed and the
// process should exit 1. Everything else returned from a command is a
// usage or internal fault and exits 2.
var errDiagnostics = errors.New("diagnostics reported")

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 256, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDiagnostics) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the persistent --color flag against the terminal.
func useColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout)), nil
}
