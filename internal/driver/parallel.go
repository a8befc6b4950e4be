package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/engine"
	"doccheck/internal/lexer"
	"doccheck/internal/observ"
	"doccheck/internal/processor"
	"doccheck/internal/remap"
	"doccheck/internal/source"
	"doccheck/internal/trace"
	"doccheck/internal/treesitter"
	"doccheck/internal/vdoc"
)

// Options configures Check.
type Options struct {
	Jobs           int
	MaxDiagnostics int
	// BaseDir makes reported paths relative; empty keeps them as given.
	BaseDir   string
	Extractor *codeblock.Extractor
	// Engine checks the documents of each file; nil reports nothing but parse errors.
	Engine engine.Engine
	// KeepGoing turns per-file load, parse and engine failures into
	// diagnostics instead of aborting the run.
	KeepGoing bool
	Cache     *Cache
	// Fingerprint is mixed into cache keys.
	Fingerprint string
	Progress    ProgressSink
	Tracer      trace.Tracer
}

// FileResult is the outcome for one real file.
type FileResult struct {
	Path      string // display path
	FileID    source.FileID
	Documents int // extracted documents, the real file excluded
	Skipped   int // virtual documents dropped by the remapper
	Messages  []diag.Message
	Cached    bool
	Err       error
	Elapsed   time.Duration
}

// Result is the outcome of a Check run. Files follows the input order.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
	Bag     *diag.Bag
	Timing  observ.Report
	Remap   remap.Stats
	Hits    int64
	Misses  int64

	byPath map[string]source.FileID
}

// FileIDs maps every display path that was loaded to its file.
func (r *Result) FileIDs() map[string]source.FileID {
	return r.byPath
}

// Lookup returns the loaded file behind a diagnostic path, or nil.
func (r *Result) Lookup(path string) *source.File {
	if id, ok := r.byPath[path]; ok {
		return r.FileSet.Get(id)
	}
	if f, ok := r.FileSet.GetByPath(path); ok {
		return f
	}
	return nil
}

// Check runs extraction, the engine and remapping over files in parallel.
// Files are loaded up front; workers share the FileSet read-only.
func Check(ctx context.Context, files []string, opts Options) (*Result, error) {
	if opts.Tracer != nil {
		ctx = trace.WithTracer(ctx, opts.Tracer)
	}
	tracer := trace.FromContext(ctx)
	ctx, runSpan := trace.Start(ctx, trace.ScopeStage, "run")
	timer := observ.NewTimer(ctx)

	loadPhase := timer.Begin("load")
	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	fileIDs := make([]source.FileID, len(files))
	loadErrors := make([]error, len(files))
	for i, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrors[i] = err
			continue
		}
		fileIDs[i] = id
	}
	timer.End(loadPhase, strconv.Itoa(len(files))+" files")

	registry := vdoc.NewRegistry()
	proc := processor.New(opts.Extractor, registry, tracer)
	c := &checker{
		opts:    opts,
		fileSet: fileSet,
		proc:    proc,
		tracer:  tracer,
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(files))

	checkPhase := timer.Begin("check")
	if len(files) > 0 {
		for _, path := range files {
			emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(files)))
		for i, path := range files {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				// results[i] is owned by this goroutine
				return c.checkFile(gctx, path, fileIDs[i], loadErrors[i], &results[i])
			})
		}
		if err := g.Wait(); err != nil {
			runSpan.End(err.Error())
			return nil, err
		}
	}
	timer.End(checkPhase, "")

	reportPhase := timer.Begin("report")
	bag := diag.NewBag(opts.MaxDiagnostics)
	// chained engines may report the same finding twice
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	for _, fr := range results {
		diag.ReportAll(reporter, fr.Path, fr.Messages)
	}
	bag.Sort()
	timer.End(reportPhase, strconv.Itoa(bag.Len())+" diagnostics")

	byPath := make(map[string]source.FileID, len(results))
	for i, fr := range results {
		if loadErrors[i] == nil {
			byPath[fr.Path] = fileIDs[i]
		}
	}
	res := &Result{
		FileSet: fileSet,
		Files:   results,
		Bag:     bag,
		Timing:  timer.Report(),
		Remap:   proc.Remapper.Stats(),
		byPath:  byPath,
	}
	res.Hits, res.Misses = opts.Cache.Stats()
	runSpan.WithCount("files", len(files)).
		WithCount("diagnostics", bag.Len()).
		End("")
	return res, nil
}

type checker struct {
	opts    Options
	fileSet *source.FileSet
	proc    *processor.Processor
	tracer  trace.Tracer
}

func (c *checker) checkFile(ctx context.Context, path string, id source.FileID, loadErr error, out *FileResult) error {
	start := time.Now()
	display := c.displayPath(path)
	out.Path = display
	ctx, sp := trace.Start(ctx, trace.ScopeFile, "file")
	sp.WithExtra("path", display)

	fail := func(stage Stage, rule string, pos source.LineCol, err error) error {
		out.Err = err
		out.Elapsed = time.Since(start)
		emit(c.opts.Progress, Event{File: path, Stage: stage, Status: StatusError, Err: err, Elapsed: out.Elapsed})
		trace.Error(c.tracer, trace.ScopeFile, string(stage), fmt.Errorf("%s: %w", display, err))
		sp.End("error")
		if !c.opts.KeepGoing {
			return fmt.Errorf("%s: %w", display, err)
		}
		out.Messages = []diag.Message{{
			RuleID:   rule,
			Severity: diag.SevError,
			Text:     errorText(err),
			Line:     int(max(pos.Line, 1)),
			Column:   int(max(pos.Col, 1)),
		}}
		return nil
	}

	if loadErr != nil {
		return fail(StageLoad, diag.RuleIO, source.LineCol{}, loadErr)
	}
	file := c.fileSet.Get(id)
	out.FileID = id

	var key Digest
	if c.opts.Cache != nil {
		key = combineDigest(file.Hash, c.opts.Fingerprint)
		if entry, ok := c.opts.Cache.Get(key); ok {
			out.Messages = cloneMessages(entry.Messages)
			out.Documents = entry.Documents
			out.Skipped = entry.Skipped
			out.Cached = true
			out.Elapsed = time.Since(start)
			emit(c.opts.Progress, Event{File: path, Stage: StageRemap, Status: StatusCached, Elapsed: out.Elapsed})
			sp.End("cached")
			return nil
		}
	}

	emit(c.opts.Progress, Event{File: path, Stage: StageExtract, Status: StatusWorking})
	ex, err := c.proc.Preprocess(ctx, file, display)
	if err != nil {
		return fail(StageExtract, diag.RuleParse, parseErrorPos(err), unwrapParse(err))
	}
	out.Documents = len(ex.Documents) - 1

	emit(c.opts.Progress, Event{File: path, Stage: StageCheck, Status: StatusWorking})
	var perDoc [][]diag.Message
	if c.opts.Engine != nil {
		perDoc, err = c.opts.Engine.Check(ctx, ex.Documents)
		if err != nil {
			// drop the pending anchors so the registry does not leak this file
			c.proc.Registry.Take(display)
			if ctx.Err() != nil {
				sp.End("canceled")
				return ctx.Err()
			}
			return fail(StageCheck, diag.RuleInternal, source.LineCol{}, err)
		}
	}

	emit(c.opts.Progress, Event{File: path, Stage: StageRemap, Status: StatusWorking})
	rr := c.proc.Postprocess(display, perDoc)
	out.Messages = rr.Messages
	out.Skipped = len(rr.Skipped)
	out.Elapsed = time.Since(start)

	if c.opts.Cache != nil {
		entry := &CacheEntry{
			Path:      display,
			Documents: out.Documents,
			Skipped:   out.Skipped,
			Messages:  cloneMessages(out.Messages),
		}
		if err := c.opts.Cache.Put(key, entry); err != nil {
			trace.Error(c.tracer, trace.ScopeFile, "cache.put", err)
		}
	}

	emit(c.opts.Progress, Event{File: path, Stage: StageRemap, Status: StatusDone, Elapsed: out.Elapsed})
	sp.WithCount("documents", out.Documents).
		WithCount("messages", len(out.Messages)).
		End("")
	return nil
}

func (c *checker) displayPath(path string) string {
	if c.opts.BaseDir == "" {
		return path
	}
	rel, err := source.RelativePath(path, c.opts.BaseDir)
	if err != nil {
		return path
	}
	return rel
}

// parseErrorPos digs the position out of a lexer or tree-sitter failure.
func parseErrorPos(err error) source.LineCol {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return lexErr.Pos
	}
	var tsErr *treesitter.Error
	if errors.As(err, &tsErr) {
		return tsErr.Pos
	}
	return source.LineCol{}
}

func unwrapParse(err error) error {
	var pe *codeblock.ParseError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

// errorText drops the "line:col: " prefix positional errors carry; the
// diagnostic has its own position.
func errorText(err error) string {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return lexErr.Msg
	}
	var tsErr *treesitter.Error
	if errors.As(err, &tsErr) {
		return "syntax error near " + tsErr.Kind
	}
	return err.Error()
}

func cloneMessages(msgs []diag.Message) []diag.Message {
	if msgs == nil {
		return nil
	}
	out := make([]diag.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
