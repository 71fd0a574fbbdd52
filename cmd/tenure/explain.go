package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tenure/internal/diagfmt"
	"tenure/internal/driver"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] <bundle.toml|directory>",
	Short: "Explain the region violations recorded in a bundle",
	Long:  `Load one inference bundle or a directory of bundles, re-derive the blame path for every recorded violation, and render the diagnostics`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	explainCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	explainCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	explainCmd.Flags().String("ui", "auto", "progress UI for directory runs (auto|on|off)")
	explainCmd.Flags().Bool("no-cache", false, "disable the bundle decode cache")
	explainCmd.Flags().Bool("stats", false, "print a one-line run summary")
	explainCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	explainCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	explainCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	explainCmd.Flags().Bool("preview", false, "show before/after previews for suggestions")
}

func runExplain(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	stats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return fmt.Errorf("failed to get stats flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	suggest, err := cmd.Flags().GetBool("suggest")
	if err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return fmt.Errorf("failed to get preview flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	cfg, err := loadWorkspaceConfig(manifestStartDir(targetPath))
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") && cfg.Defaults.Format != "" {
		format = cfg.Defaults.Format
	}
	if !cmd.Flags().Changed("jobs") && cfg.Defaults.Jobs > 0 {
		jobs = cfg.Defaults.Jobs
	}
	if !cmd.Flags().Changed("ui") && cfg.Defaults.UI != "" {
		uiFlag = cfg.Defaults.UI
	}
	if !cmd.Flags().Changed("no-cache") && cfg.Cache.Disable {
		noCache = true
	}

	switch format {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	opts := driver.Options{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		NoCache:        noCache,
		CacheDir:       cfg.Cache.Dir,
		Timings:        showTimings,
	}

	st, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	var res *driver.Result
	if st.IsDir() {
		if shouldUseTUI(mode) {
			files, listErr := driver.ListBundleFiles(targetPath)
			if listErr != nil {
				return listErr
			}
			res, err = runExplainDirWithUI(cmd.Context(), "explaining "+targetPath, targetPath, files, opts)
		} else {
			res, err = driver.ExplainDir(cmd.Context(), targetPath, opts)
		}
	} else {
		res, err = driver.Explain(cmd.Context(), targetPath, opts)
	}
	if err != nil {
		return internalFault(cmd, err)
	}

	colored, err := useColor(cmd)
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	showFixes := suggest || preview

	switch format {
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:       colored,
			Context:     2,
			PathMode:    pathMode,
			ShowNotes:   withNotes,
			ShowFixes:   showFixes,
			ShowPreview: preview,
		}
		if err := diagfmt.Pretty(os.Stdout, res.Bag, res.FileSet, prettyOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
			IncludeFixes:     showFixes,
			IncludePreviews:  preview,
		}
		if err := diagfmt.JSON(os.Stdout, res.Bag, res.FileSet, jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "short":
		if err := diagfmt.Short(os.Stdout, res.Bag, res.FileSet); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}

	if stats && !quiet {
		fmt.Fprintln(os.Stdout, res.StatsLine())
	}

	if res.Bag.HasErrors() {
		// Diagnostics are the output, not a usage problem.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errDiagnostics
	}
	return nil
}

// internalFault reports an engine failure: the bundle claimed a
// violation the blame search cannot trace. This is a solver/bundle
// inconsistency, not a user diagnostic.
func internalFault(cmd *cobra.Command, err error) error {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(os.Stderr, "internal: ")
	fmt.Fprintln(os.Stderr, err.Error())
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return err
}
