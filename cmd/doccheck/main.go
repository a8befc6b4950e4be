package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"doccheck/internal/version"
)

// errFindings is returned when diagnostics with error severity were printed.
// It only sets the exit code.
var errFindings = errors.New("findings reported")

var rootCmd = &cobra.Command{
	Use:   "doccheck",
	Short: "Check code blocks in JSDoc comments",
	Long: `doccheck extracts fenced code blocks from the doc comments of TypeScript and
JavaScript files, checks them as standalone documents, and reports every
finding at its position in the real file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRun,
}

// cleanups run after the command, whether it failed or not.
var cleanups []func()

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	registerPersistentFlags(rootCmd)

	err := rootCmd.Execute()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	if err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func setupRun(cmd *cobra.Command, _ []string) error {
	cmd.Root().SilenceErrors = true
	traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, traceCleanup)
	profCleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, profCleanup)
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// registerPersistentFlags adds the flags shared by every command.
func registerPersistentFlags(root *cobra.Command) {
	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics to report (0=config or unlimited)")
	pf.String("config", "", "path to doccheck.toml or .doccheck.yaml (default: search upwards)")
	pf.String("ui", "auto", "progress UI (auto|on|off)")

	pf.String("trace", "", "trace output file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace event format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept in ring mode")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0=off)")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")
}
