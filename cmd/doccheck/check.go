package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"doccheck/internal/diag"
	"doccheck/internal/diagfmt"
	"doccheck/internal/driver"
	"doccheck/internal/engine/lint"
	"doccheck/internal/engine/run"
	"doccheck/internal/engine/syntax"
	"doccheck/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file|directory]...",
	Short: "Check the code blocks of doc comments",
	Long: `Extract the fenced code blocks of every doc comment, run the enabled engines
on them, and report findings at their position in the real files. With no
arguments the current directory is checked.`,
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd)
	addPipelineFlags(checkCmd)
	addEngineFlags(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	cmd.Flags().String("path-mode", "auto", "how paths are printed (auto|absolute|relative|basename)")
	cmd.Flags().Int("context", 0, "source lines shown above each finding (pretty)")
	cmd.Flags().Bool("suggest", false, "include fixes and suggestions in the output")
	cmd.Flags().Bool("preview", false, "include before/after previews of fixes (json)")
	cmd.Flags().Bool("warnings-as-errors", false, "exit non-zero on warnings too")
	cmd.Flags().String("min-severity", "info", "hide findings below this severity (info|warning|error)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	format, err := flags.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json", "sarif":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	pathModeStr, err := flags.GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", pathModeStr)
	}
	contextLines, err := flags.GetInt("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	suggest, err := flags.GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	preview, err := flags.GetBool("preview")
	if err != nil {
		return fmt.Errorf("failed to get preview flag: %w", err)
	}
	warningsAsErrors, err := flags.GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	minSevStr, err := flags.GetString("min-severity")
	if err != nil {
		return fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	minSev, err := diag.ParseSeverity(minSevStr)
	if err != nil {
		return fmt.Errorf("invalid --min-severity: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	uiValue, err := cmd.Root().PersistentFlags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	color, err := useColor(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	files, err := discover(cfg, args)
	if err != nil {
		return err
	}
	// console output of executed blocks goes to stderr so stdout stays parseable
	opts, err := pipelineOptions(cmd, cfg, os.Stderr)
	if err != nil {
		return err
	}

	var res *driver.Result
	if !quiet && format == "pretty" && len(files) > 1 && shouldUseTUI(mode) {
		res, err = runCheckWithUI(cmd.Context(), "doccheck", files, opts)
	} else {
		res, err = driver.Check(cmd.Context(), files, opts)
	}
	if err != nil {
		return err
	}
	if minSev > diag.SevInfo {
		res.Bag.Filter(func(d *diag.Diagnostic) bool { return d.Severity >= minSev })
	}

	out := cmd.OutOrStdout()
	if err := report(out, res, format, reportOptions{
		pathMode: pathMode,
		baseDir:  cfg.Root,
		context:  contextLines,
		color:    color,
		fixes:    suggest || preview,
		previews: preview,
		args:     os.Args,
	}); err != nil {
		return fmt.Errorf("failed to format diagnostics: %w", err)
	}

	if showTimings {
		if err := printTimings(cmd.ErrOrStderr(), res, "check", format == "json" || format == "sarif"); err != nil {
			return err
		}
	}
	if !quiet && format == "pretty" {
		printSummary(cmd.ErrOrStderr(), res)
	}

	if res.Bag.HasErrors() || (warningsAsErrors && res.Bag.HasWarnings()) {
		return errFindings
	}
	return nil
}

type reportOptions struct {
	pathMode diagfmt.PathMode
	baseDir  string
	context  int
	color    bool
	fixes    bool
	previews bool
	args     []string
}

func report(out io.Writer, res *driver.Result, format string, o reportOptions) error {
	switch format {
	case "pretty":
		return diagfmt.Pretty(out, res.Bag, res.Lookup, diagfmt.PrettyOpts{
			Color:     o.color,
			Context:   o.context,
			PathMode:  o.pathMode,
			BaseDir:   o.baseDir,
			ShowFixes: o.fixes,
		})
	case "short":
		return diagfmt.Short(out, res.Bag, o.pathMode, o.baseDir)
	case "json":
		return diagfmt.JSON(out, res.Bag, res.Lookup, diagfmt.JSONOpts{
			PathMode:        o.pathMode,
			BaseDir:         o.baseDir,
			IncludeFixes:    o.fixes,
			IncludePreviews: o.previews,
		})
	case "sarif":
		return diagfmt.Sarif(out, res.Bag, diagfmt.SarifRunMeta{
			ToolName:       appName,
			ToolVersion:    version.Version,
			InvocationArgs: o.args,
			Rules:          sarifRules(),
			BaseDir:        o.baseDir,
			Lookup:         res.Lookup,
		})
	}
	return fmt.Errorf("unknown format: %s", format)
}

func sarifRules() []diagfmt.SarifRule {
	rules := []diagfmt.SarifRule{
		{ID: diag.RuleParse, Description: "The file could not be parsed"},
		{ID: diag.RuleIO, Description: "The file could not be read"},
		{ID: diag.RuleInternal, Description: "A check engine failed"},
		{ID: syntax.RuleID, Description: "Syntax errors and warnings reported by esbuild"},
		{ID: run.RuleID, Description: "Uncaught exceptions and timeouts of executed code blocks"},
	}
	for _, r := range lint.Builtin() {
		rules = append(rules, diagfmt.SarifRule{ID: r.ID(), Description: r.Description()})
	}
	return rules
}

func printSummary(w io.Writer, res *driver.Result) {
	counts := res.Bag.Counts()
	docs := 0
	for _, f := range res.Files {
		docs += f.Documents
	}
	fmt.Fprintf(w, "%d files, %d code blocks: %d errors, %d warnings\n",
		len(res.Files), docs, counts[diag.SevError], counts[diag.SevWarning])
}
