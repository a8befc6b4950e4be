package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"doccheck/internal/driver"
	"doccheck/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [file|directory]...",
	Short: "Apply the fixes found in doc comment code blocks",
	Long: `Check the code blocks of doc comments and apply the available fixes to the real
files. Overlapping fixes are skipped; run again to apply them.`,
	RunE: runFix,
}

func init() {
	addFixFlags(fixCmd)
	addPipelineFlags(fixCmd)
	addEngineFlags(fixCmd)
}

func addFixFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("all", false, "apply every non-overlapping fix (default)")
	cmd.Flags().Bool("once", false, "apply only the first available fix")
	cmd.Flags().String("rule", "", "apply only fixes reported by this rule id")
	cmd.Flags().Bool("dry-run", false, "report the fixes without writing files")
}

func fixOptions(cmd *cobra.Command) (fix.ApplyOptions, error) {
	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	applyOnce, err := cmd.Flags().GetBool("once")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	rule, err := cmd.Flags().GetString("rule")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	if rule != "" && (applyAll || applyOnce) {
		return fix.ApplyOptions{}, fmt.Errorf("--rule cannot be combined with --all or --once")
	}
	if applyAll && applyOnce {
		return fix.ApplyOptions{}, fmt.Errorf("--all and --once are mutually exclusive")
	}

	opts := fix.ApplyOptions{Mode: fix.ApplyModeAll, DryRun: dryRun}
	switch {
	case rule != "":
		opts.Mode = fix.ApplyModeRule
		opts.TargetRule = rule
	case applyOnce:
		opts.Mode = fix.ApplyModeOnce
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	opts, err := fixOptions(cmd)
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	files, err := discover(cfg, args)
	if err != nil {
		return err
	}
	driverOpts, err := pipelineOptions(cmd, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	// every fix must be seen, whatever the report limit
	driverOpts.MaxDiagnostics = 0

	result, err := driver.Check(cmd.Context(), files, driverOpts)
	if err != nil {
		return fmt.Errorf("fix: check failed: %w", err)
	}
	if showTimings {
		if err := printTimings(cmd.ErrOrStderr(), result, "fix", false); err != nil {
			return err
		}
	}

	res, applyErr := fix.Apply(result.FileSet, result.FileIDs(), result.Bag.Items(), opts)
	return handleApplyResult(cmd.OutOrStdout(), res, applyErr, opts.DryRun)
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}
	verb := "Applied"
	if dryRun {
		verb = "Would apply"
	}

	if len(res.Applied) > 0 {
		if _, err := fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied)); err != nil {
			return err
		}
		for _, item := range res.Applied {
			if _, err := fmt.Fprintf(out, "  %s:%d:%d [%s] %s\n", item.Path, item.Line, item.Column, item.RuleID, item.Message); err != nil {
				return err
			}
		}
	}

	if len(res.FileChanges) > 0 {
		header := "Updated files:"
		if dryRun {
			header = "Files that would change:"
		}
		if _, err := fmt.Fprintln(out, header); err != nil {
			return err
		}
		for _, change := range res.FileChanges {
			if _, err := fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount); err != nil {
				return err
			}
		}
	}

	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintln(out, "Skipped fixes:"); err != nil {
			return err
		}
		for _, skip := range res.Skipped {
			if _, err := fmt.Fprintf(out, "  %s:%d [%s]: %s\n", skip.Path, skip.Line, skip.RuleID, skip.Reason); err != nil {
				return err
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, err := fmt.Fprintln(out, "No applicable fixes found.")
			return err
		}
		return applyErr
	}
	return nil
}
