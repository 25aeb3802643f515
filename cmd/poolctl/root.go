package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// Global flags
	verbose bool
	quiet   bool
)

// out formats reports with thousands separators so block counts stay
// readable at stress-run scale.
var out = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "poolctl",
	Short: "Benchmark and stress the mempool allocator",
	Long: `poolctl drives the tiered fixed-size-class allocator from the command
line. It times allocate/free cycles against the Go runtime allocator and runs
multi-worker stress workloads with invariant checks.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
}

// initLogging wires slog to stderr. Logging is discarded unless verbose is
// set; the reports themselves go to stdout through the message printer.
func initLogging() {
	w := io.Discard
	level := slog.LevelInfo
	if verbose && !quiet {
		w = os.Stderr
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printInfo prints a report line unless quiet mode is on.
func printInfo(format string, args ...any) {
	if !quiet {
		out.Printf(format, args...)
	}
}
