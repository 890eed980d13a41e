package engine

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"treelint/internal/diag"
	"treelint/internal/observ"
	"treelint/internal/source"
	"treelint/internal/treefile"
)

// TreeFileSuffix is the extension tree documents are discovered by.
const TreeFileSuffix = ".optree.json"

// FileResult pairs one tree document with its analysis outcome. Err is
// per-file: a malformed document does not abort the other files.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// ListTreeFiles returns the sorted tree documents under dir.
func ListTreeFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, TreeFileSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CheckPaths loads every tree document serially into the shared FileSet
// (FileSet writes are not synchronized), then checks the trees in
// parallel. Each traversal owns its context, collector and bag, so no
// mutable state crosses traversal boundaries; ordering is guaranteed
// within each file, and the result slice follows the input path order.
func CheckPaths(ctx context.Context, paths []string, fileSet *source.FileSet, opts Options) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	timers := make([]*observ.Timer, len(paths))

	// Phase 1: serial load.
	for i, path := range paths {
		results[i].Path = path
		if opts.EnableTimings {
			timers[i] = observ.NewTimer()
		}
		stopLoad := timers[i].Phase("load")
		tree, fileID, err := treefile.Load(path, fileSet)
		if err != nil {
			results[i].Err = err
			continue
		}
		stopLoad(fmt.Sprintf("%d node(s)", tree.Len()))
		results[i].Result = &Result{Tree: tree, FileID: fileID}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Phase 2: parallel check. The FileSet is read-only from here on.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)
	for i := range results {
		if results[i].Err != nil || results[i].Result == nil {
			continue
		}
		i := i
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			fileOpts := opts
			fileOpts.Timer = timers[i]
			res, err := Check(results[i].Result.Tree, fileOpts)
			results[i].Result = res
			// per-file errors are recorded, not propagated: one
			// malformed tree must not cancel its siblings
			results[i].Err = err
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// CheckDir discovers tree documents under dir and checks them all.
func CheckDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []FileResult, error) {
	files, err := ListTreeFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}
	results, err := CheckPaths(ctx, files, fileSet, opts)
	return fileSet, results, err
}

// MergeBags concatenates per-file bags in path order, suppressing exact
// repeats of code, severity, primary span and message. Ordering across
// different trees is not meaningful; within one tree it is preserved.
func MergeBags(results []FileResult, maxDiagnostics int) *diag.Bag {
	merged := diag.NewBag(maxDiagnostics)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: merged})
	for _, r := range results {
		if r.Result == nil || r.Result.Bag == nil {
			continue
		}
		for _, d := range r.Result.Bag.Items() {
			reporter.Report(d)
		}
	}
	return merged
}
