package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"doccheck/internal/codeblock"
	"doccheck/internal/source"
)

// ExtractResult holds the extraction of one file, or the error that prevented it.
type ExtractResult struct {
	Path       string
	File       *source.File
	Extraction *codeblock.Extraction
	Err        error
}

// Extract runs only the extraction step over files, in parallel. Per-file
// failures are stored in the results; only cancellation aborts.
func Extract(ctx context.Context, files []string, opts Options) ([]ExtractResult, error) {
	extractor := opts.Extractor
	if extractor == nil {
		extractor = &codeblock.Extractor{}
	}
	c := &checker{opts: opts}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]ExtractResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			display := c.displayPath(path)
			results[i].Path = display
			n, err := source.ReadNormalized(path)
			if err != nil {
				results[i].Err = err
				return nil
			}
			file := n.File(path)
			results[i].File = file
			results[i].Extraction, results[i].Err = extractor.Extract(gctx, file, display)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
