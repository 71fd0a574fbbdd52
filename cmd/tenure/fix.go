package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tenure/internal/driver"
	"tenure/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <bundle.toml|directory>",
	Short: "Apply suggested edits to source files",
	Long:  "Explain the bundle, surface the machine-applicable suggestions, and apply them according to the chosen strategy.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply fixes with a specific identifier")
	fixCmd.Flags().Bool("dry-run", false, "validate and report fixes without writing files")
	fixCmd.Flags().Bool("diff", false, "print a line diff of the staged changes (implies --dry-run)")
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	opts := fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		DryRun:   dryRun || diff,
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	driverOpts := driver.Options{MaxDiagnostics: maxDiagnostics}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}

	var res *driver.Result
	if info.IsDir() {
		res, err = driver.ExplainDir(cmd.Context(), targetPath, driverOpts)
	} else {
		res, err = driver.Explain(cmd.Context(), targetPath, driverOpts)
	}
	if err != nil {
		return internalFault(cmd, err)
	}

	applyRes, applyErr := fix.Apply(res.FileSet, res.Bag.Items(), opts)
	if err := printApplyResult(applyRes, applyErr); err != nil {
		return err
	}
	if diff && applyRes != nil {
		printDiffs(applyRes.FileChanges)
	}
	return nil
}

func printApplyResult(res *fix.ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}

	if len(res.Applied) > 0 {
		verb := "Applied"
		if res.DryRun {
			verb = "Staged"
		}
		fmt.Fprintf(os.Stdout, "%s %d fix(es):\n", verb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(os.Stdout, "  %s [%s] %s (%d edits, %s)\n",
				item.Title, item.ID, location, item.EditCount, item.Applicability.String())
		}
	}

	if len(res.FileChanges) > 0 && !res.DryRun {
		fmt.Fprintln(os.Stdout, "Updated files:")
		for _, change := range res.FileChanges {
			fmt.Fprintf(os.Stdout, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(os.Stdout, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(os.Stdout, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(os.Stdout, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			fmt.Fprintln(os.Stdout, "No applicable fixes found.")
			return nil
		}
		return applyErr
	}

	if len(res.Applied) == 0 {
		fmt.Fprintln(os.Stdout, "No fixes applied.")
	}
	return nil
}

// printDiffs renders each staged change as a minimal line diff: the
// shared head and tail are trimmed, the differing middle is printed
// with -/+ markers.
func printDiffs(changes []fix.FileChange) {
	for _, change := range changes {
		before := splitLines(string(change.Before))
		after := splitLines(string(change.After))

		head := 0
		for head < len(before) && head < len(after) && before[head] == after[head] {
			head++
		}
		tail := 0
		for tail < len(before)-head && tail < len(after)-head &&
			before[len(before)-1-tail] == after[len(after)-1-tail] {
			tail++
		}

		fmt.Fprintf(os.Stdout, "--- %s\n+++ %s\n", change.Path, change.Path)
		fmt.Fprintf(os.Stdout, "@@ line %d @@\n", head+1)
		for _, line := range before[head : len(before)-tail] {
			fmt.Fprintf(os.Stdout, "-%s\n", line)
		}
		for _, line := range after[head : len(after)-tail] {
			fmt.Fprintf(os.Stdout, "+%s\n", line)
		}
	}
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
