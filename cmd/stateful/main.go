package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stateful/internal/prof"
	"stateful/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "stateful",
	Short: "Lower suspendable functions into resumable state machines",
	Long: `stateful lowers generator and async functions written as structured
programs into block graphs and state machines, and drives them step by step.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

// cleanup releases the tracer and flushes the logger after Execute.
var cleanup = func() {}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)

	registerPersistentFlags(rootCmd)

	err := rootCmd.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// registerPersistentFlags adds the flags shared by every subcommand.
func registerPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().Int("jobs", 0, "max functions lowered in parallel (0=auto)")
	root.PersistentFlags().String("diag-format", "pretty", "diagnostics format (pretty|json)")
	root.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	root.PersistentFlags().String("trace", "", "trace output file (- for stderr, zap for the logger)")
	root.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	root.PersistentFlags().Bool("verbose", false, "log driver activity to stderr")
	root.PersistentFlags().Bool("no-cache", false, "do not read or write the artifact cache")
	root.PersistentFlags().String("cpuprofile", "", "write a CPU profile to this file")
	root.PersistentFlags().String("memprofile", "", "write a heap profile to this file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
	root.PersistentFlags().String("config", "", "path to stateful.toml (default: search upward from the working directory)")
}

// prepare resolves settings and sets up logging and tracing for every
// subcommand.
func prepare(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	current = s
	applyColor(s.Output.Color)

	logCleanup, err := setupLogging(cmd)
	if err != nil {
		return err
	}
	traceCleanup, err := setupTracing(cmd, s)
	if err != nil {
		logCleanup()
		return fmt.Errorf("trace: %w", err)
	}
	flags := cmd.Root().PersistentFlags()
	var pc prof.Config
	pc.CPU, _ = flags.GetString("cpuprofile")
	pc.Mem, _ = flags.GetString("memprofile")
	pc.Trace, _ = flags.GetString("runtime-trace")
	session, err := prof.Start(pc)
	if err != nil {
		traceCleanup()
		logCleanup()
		return fmt.Errorf("profile: %w", err)
	}
	cleanup = func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
		traceCleanup()
		logCleanup()
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
