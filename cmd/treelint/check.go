package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"treelint/internal/diag"
	"treelint/internal/diagfmt"
	"treelint/internal/engine"
	"treelint/internal/observ"
	"treelint/internal/rules"
	"treelint/internal/source"
	"treelint/internal/treefile"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file" + engine.TreeFileSuffix + "|directory>",
	Short: "Run lint rules over a tree document or a directory of them",
	Long:  `Run every enabled rule over the given tree document, or over all *` + engine.TreeFileSuffix + ` documents under a directory`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("no-source", false, "omit source lines from pretty output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("cache", false, "reuse cached results for unchanged single-file targets")
	checkCmd.Flags().Bool("clear-cache", false, "drop all cached results before running")
}

func runCheck(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (must be pretty or json)", format)
	}

	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	noSource, err := cmd.Flags().GetBool("no-source")
	if err != nil {
		return fmt.Errorf("failed to get no-source flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	if clearCache {
		cache, err := engine.OpenResultCache("treelint")
		if err != nil {
			return fmt.Errorf("clear-cache: %w", err)
		}
		if err := cache.DropAll(); err != nil {
			return fmt.Errorf("clear-cache: %w", err)
		}
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
	colorEnabled, err := useColor(cmd)
	if err != nil {
		return err
	}

	registry := rules.Default()
	cfg, err := resolveConfig(cmd, targetPath, registry)
	if err != nil {
		return err
	}

	if maxDiagnostics <= 0 {
		maxDiagnostics = cfg.MaxDiagnostics
	}
	opts := engine.Options{
		Registry:       registry,
		Config:         cfg,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		EnableTimings:  showTimings,
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	var (
		fileSet *source.FileSet
		bag     *diag.Bag
		results []engine.FileResult
		timer   *observ.Timer
	)
	if info.IsDir() {
		fileSet, results, err = engine.CheckDir(cmd.Context(), targetPath, opts)
		if err != nil {
			return fmt.Errorf("check: %w", err)
		}
		// load errors carry no usable span, so they go to stderr instead
		// of the bag
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "treelint: %s: %v\n", r.Path, r.Err)
			}
		}
		bag = engine.MergeBags(results, opts.MaxDiagnostics)
	} else {
		timer = observ.NewTimer()
		opts.Timer = timer
		fileSet = source.NewFileSet()
		bag, err = checkFile(targetPath, fileSet, opts, useCache)
		if err != nil {
			return fmt.Errorf("check: %w", err)
		}
	}

	bag.Sort()

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch format {
	case "json":
		err = diagfmt.JSON(cmd.OutOrStdout(), bag, fileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
			IncludeRules:     true,
		})
		if err != nil {
			return err
		}
	default:
		diagfmt.Pretty(cmd.OutOrStdout(), bag, fileSet, diagfmt.PrettyOpts{
			Color:      colorEnabled,
			PathMode:   pathMode,
			ShowNotes:  withNotes,
			ShowSource: !noSource,
		})
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%d diagnostic(s)\n", bag.Len())
		}
	}

	if showTimings && !quiet {
		if timer != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", targetPath, timer.Report())
		} else {
			printTimings(cmd.OutOrStdout(), results)
		}
	}

	if bag.HasErrors() || bag.HasWarnings() {
		os.Exit(1)
	}
	return nil
}

// checkFile runs one document, consulting the result cache when asked.
// A cache hit skips the walk entirely; the offsets rebind to the file
// registered from the current document bytes.
func checkFile(path string, fileSet *source.FileSet, opts engine.Options, useCache bool) (*diag.Bag, error) {
	var (
		cache *engine.ResultCache
		key   engine.Digest
	)
	if useCache {
		docBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		cache, err = engine.OpenResultCache("treelint")
		if err != nil {
			return nil, err
		}
		key = engine.Key(docBytes, engine.Fingerprint(opts.Config, opts.Registry))

		var run engine.CachedRun
		if hit, err := cache.Get(key, &run); err == nil && hit {
			stopLoad := opts.Timer.Phase("load")
			_, fileID, err := treefile.Load(path, fileSet)
			if err != nil {
				return nil, err
			}
			stopLoad("cache hit")
			return engine.UnpackRun(&run, fileID, opts.MaxDiagnostics), nil
		}
	}

	stopLoad := opts.Timer.Phase("load")
	tree, _, err := treefile.Load(path, fileSet)
	if err != nil {
		return nil, err
	}
	stopLoad(fmt.Sprintf("%d node(s)", tree.Len()))
	res, checkErr := engine.Check(tree, opts)
	if checkErr != nil {
		// malformed trees are already rendered into the bag; the walk
		// error itself is not fatal to the CLI run
		return res.Bag, nil
	}
	if cache != nil {
		if err := cache.Put(key, engine.PackRun(res)); err != nil {
			fmt.Fprintf(os.Stderr, "treelint: cache write failed: %v\n", err)
		}
	}
	return res.Bag, nil
}

func printTimings(w io.Writer, results []engine.FileResult) {
	for _, r := range results {
		if r.Result == nil || len(r.Result.Timing.Phases) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", r.Path, r.Result.Timing)
	}
}
