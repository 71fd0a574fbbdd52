// Package driver orchestrates explain runs: load bundles, assemble the
// inference, walk the recorded violations through blame search, and
// collect the diagnostics for rendering.
//
// Bundle trouble is user-input trouble and lands in the diagnostic bag.
// The error returns are reserved for engine failures, like a recorded
// violation whose blame search finds no constraint path.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tenure/internal/bundle"
	"tenure/internal/diag"
	"tenure/internal/observ"
	"tenure/internal/source"
)

// ManifestName is the workspace manifest file. Directory walks skip it:
// it configures the tool and is not a bundle.
const ManifestName = "tenure.toml"

const defaultMaxDiagnostics = 256

// Options configures Explain and ExplainDir.
type Options struct {
	// MaxDiagnostics bounds the result bag; <= 0 uses the default.
	MaxDiagnostics int
	// Jobs is the directory-mode worker count; <= 0 uses GOMAXPROCS.
	Jobs int
	// NoCache disables the bundle decode cache.
	NoCache bool
	// CacheDir overrides the cache location. Empty means the user cache
	// directory.
	CacheDir string
	// Timings appends a timing report diagnostic to the bag.
	Timings bool
	// Progress receives pipeline events; nil disables them.
	Progress ProgressSink
}

// Result is the outcome of one explain run.
type Result struct {
	// FileSet holds every source file the bundles referenced, plus the
	// bundle files themselves when they failed and had to be anchored.
	FileSet *source.FileSet
	// Bag is the merged, sorted diagnostics.
	Bag *diag.Bag
	// Bundles counts bundles that loaded and built.
	Bundles int
	// Violations counts obligations explained across all bundles.
	Violations int
	// Failed counts bundle files that could not be loaded or built.
	Failed int
}

// Explain runs the pipeline for a single bundle file.
func Explain(ctx context.Context, path string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileSet := source.NewFileSet()
	bag := diag.NewBag(maxDiags(opts))
	res := &Result{FileSet: fileSet, Bag: bag}

	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	begin := func(name string) int {
		if timer == nil {
			return -1
		}
		return timer.Begin(name)
	}
	end := func(idx int, note string) {
		if timer == nil || idx < 0 {
			return
		}
		timer.End(idx, note)
	}

	cache := openCache(opts)

	emit(opts.Progress, Event{Path: path, Stage: StageLoad, Status: StatusWorking})
	loadStart := time.Now()
	loadIdx := begin("load")
	b, err := bundle.LoadCached(path, cache)
	end(loadIdx, "")
	if err != nil {
		res.Failed++
		appendBundleFailure(bag, fileSet, path, err)
		emit(opts.Progress, Event{Path: path, Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(loadStart)})
		finish(bag, timer, "bundle", path)
		return res, nil
	}
	emit(opts.Progress, Event{Path: path, Stage: StageLoad, Status: StatusDone, Elapsed: time.Since(loadStart)})

	emit(opts.Progress, Event{Path: path, Stage: StageGraph, Status: StatusWorking})
	graphStart := time.Now()
	graphIdx := begin("graph")
	built, err := b.Build(fileSet)
	graphNote := ""
	if timer != nil && err == nil {
		graphNote = fmt.Sprintf("regions=%d constraints=%d",
			built.Inference.NumRegions(), built.Inference.Constraints.Len())
	}
	end(graphIdx, graphNote)
	if err != nil {
		res.Failed++
		appendBundleFailure(bag, fileSet, path, err)
		emit(opts.Progress, Event{Path: path, Stage: StageGraph, Status: StatusError, Err: err, Elapsed: time.Since(graphStart)})
		finish(bag, timer, "bundle", path)
		return res, nil
	}
	res.Bundles++
	emit(opts.Progress, Event{Path: path, Stage: StageGraph, Status: StatusDone, Elapsed: time.Since(graphStart)})

	emit(opts.Progress, Event{Path: path, Stage: StageExplain, Status: StatusWorking})
	explainStart := time.Now()
	explainIdx := begin("explain")
	err = explainViolations(built, bag)
	explainNote := ""
	if timer != nil {
		explainNote = fmt.Sprintf("diags=%d", bag.Len())
	}
	end(explainIdx, explainNote)
	if err != nil {
		emit(opts.Progress, Event{Path: path, Stage: StageExplain, Status: StatusError, Err: err, Elapsed: time.Since(explainStart)})
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Violations += len(built.Violations)
	emit(opts.Progress, Event{Path: path, Stage: StageExplain, Status: StatusDone, Elapsed: time.Since(explainStart)})

	finish(bag, timer, "bundle", path)
	return res, nil
}

// ExplainDir runs the pipeline over every bundle under dir. Loading and
// building happen serially because both mutate the shared file set; the
// per-bundle blame searches then run in parallel, each into its own bag,
// and the bags merge back in path order.
func ExplainDir(ctx context.Context, dir string, opts Options) (*Result, error) {
	files, err := ListBundleFiles(dir)
	if err != nil {
		return nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	merged := diag.NewBag(maxDiags(opts))
	res := &Result{FileSet: fileSet, Bag: merged}
	if len(files) == 0 {
		return res, nil
	}

	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}

	cache := openCache(opts)

	for _, path := range files {
		emit(opts.Progress, Event{Path: path, Stage: StageLoad, Status: StatusQueued})
	}

	type dirBundle struct {
		path   string
		loaded *bundle.Bundle
		built  *bundle.Result
		bag    *diag.Bag
	}
	items := make([]dirBundle, len(files))

	loadIdx := -1
	if timer != nil {
		loadIdx = timer.Begin("load")
	}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items[i] = dirBundle{path: path, bag: diag.NewBag(maxDiags(opts))}

		emit(opts.Progress, Event{Path: path, Stage: StageLoad, Status: StatusWorking})
		start := time.Now()
		b, err := bundle.LoadCached(path, cache)
		if err != nil {
			res.Failed++
			appendBundleFailure(items[i].bag, fileSet, path, err)
			emit(opts.Progress, Event{Path: path, Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(start)})
			continue
		}
		items[i].loaded = b
		emit(opts.Progress, Event{Path: path, Stage: StageLoad, Status: StatusDone, Elapsed: time.Since(start)})
	}
	if timer != nil {
		timer.End(loadIdx, fmt.Sprintf("bundles=%d", len(files)))
	}

	graphIdx := -1
	if timer != nil {
		graphIdx = timer.Begin("graph")
	}
	for i := range items {
		if items[i].loaded == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := items[i].path

		emit(opts.Progress, Event{Path: path, Stage: StageGraph, Status: StatusWorking})
		start := time.Now()
		built, err := items[i].loaded.Build(fileSet)
		if err != nil {
			res.Failed++
			appendBundleFailure(items[i].bag, fileSet, path, err)
			emit(opts.Progress, Event{Path: path, Stage: StageGraph, Status: StatusError, Err: err, Elapsed: time.Since(start)})
			continue
		}
		items[i].built = built
		res.Bundles++
		res.Violations += len(built.Violations)
		emit(opts.Progress, Event{Path: path, Stage: StageGraph, Status: StatusDone, Elapsed: time.Since(start)})
	}
	if timer != nil {
		timer.End(graphIdx, fmt.Sprintf("bundles=%d failed=%d", res.Bundles, res.Failed))
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	explainIdx := -1
	if timer != nil {
		explainIdx = timer.Begin("explain")
	}

	// From here on the file set is read-only, so the blame searches can
	// share it across workers. Result indexes are unique per goroutine.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i := range items {
		if items[i].built == nil {
			continue
		}
		g.Go(func(i int) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				item := &items[i]
				emit(opts.Progress, Event{Path: item.path, Stage: StageExplain, Status: StatusWorking})
				start := time.Now()
				if err := explainViolations(item.built, item.bag); err != nil {
					emit(opts.Progress, Event{Path: item.path, Stage: StageExplain, Status: StatusError, Err: err, Elapsed: time.Since(start)})
					return fmt.Errorf("%s: %w", item.path, err)
				}
				emit(opts.Progress, Event{Path: item.path, Stage: StageExplain, Status: StatusDone, Elapsed: time.Since(start)})
				return nil
			}
		}(i))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for i := range items {
		for _, d := range items[i].bag.Items() {
			merged.Add(d)
			total++
		}
	}
	if timer != nil {
		timer.End(explainIdx, fmt.Sprintf("diags=%d", total))
	}

	finish(merged, timer, "dir", dir)
	return res, nil
}

// explainViolations reports every recorded violation against the built
// inference. Reports go through a dedup layer: distinct violations can
// blame the same constraint and would otherwise repeat verbatim.
func explainViolations(built *bundle.Result, bag *diag.Bag) error {
	rep := diag.NewDedupReporter(&diag.BagReporter{Bag: bag})
	for _, v := range built.Violations {
		if err := built.Inference.ReportViolation(v.Fr, v.OutlivedFr, rep); err != nil {
			return err
		}
	}
	return nil
}

// finish sorts the bag and appends the timing report when enabled.
func finish(bag *diag.Bag, timer *observ.Timer, kind, path string) {
	bag.Sort()
	if timer == nil {
		return
	}
	report := timer.Report()
	appendTimingDiagnostic(bag, timingPayload{
		Kind:    kind,
		Path:    path,
		TotalMS: report.TotalMS,
		Phases:  report.Phases,
	})
}

// appendBundleFailure records a bundle that could not be loaded or
// built. The diagnostic is anchored to the start of the bundle file
// itself, registered as a virtual file, so every output format has a
// position to print.
func appendBundleFailure(bag *diag.Bag, fileSet *source.FileSet, path string, err error) {
	span := bundleAnchor(fileSet, path)
	var schemaErr *bundle.SchemaError
	if errors.As(err, &schemaErr) {
		// decode errors carry the file name in their message; the span
		// names the file now
		msg := strings.TrimPrefix(schemaErr.Msg, path+": ")
		bag.Add(&diag.Diagnostic{
			Severity: diag.SevError,
			Code:     schemaErr.Code,
			Message:  msg,
			Primary:  span,
		})
		return
	}
	bag.Add(&diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IOLoadFileError,
		Message:  err.Error(),
		Primary:  span,
	})
}

// bundleAnchor registers the bundle file as a virtual file and returns a
// span at its start. The re-read may fail (that is often why we are
// here); an empty anchor still resolves to line 1.
func bundleAnchor(fileSet *source.FileSet, path string) source.Span {
	if f, ok := fileSet.GetByPath(path); ok {
		return source.Span{File: f.ID, Start: 0, End: 0}
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by the caller
	if err != nil {
		data = nil
	}
	id := fileSet.AddVirtual(path, data)
	return source.Span{File: id, Start: 0, End: 0}
}

// openCache opens the bundle decode cache. Cache trouble never fails a
// run; any error just disables caching.
func openCache(opts Options) *bundle.Cache {
	if opts.NoCache {
		return nil
	}
	cache, err := bundle.OpenCache(opts.CacheDir)
	if err != nil {
		return nil
	}
	return cache
}

// ListBundleFiles returns the sorted *.toml files under dir, skipping
// the workspace manifest. ExplainDir visits exactly this list, in this
// order; the progress UI uses it to lay out its rows up front.
func ListBundleFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".toml") {
			return nil
		}
		if filepath.Base(path) == ManifestName {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func maxDiags(opts Options) int {
	if opts.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return opts.MaxDiagnostics
}
