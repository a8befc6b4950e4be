// Package processor exposes extraction and remapping as the two halves of a
// lint processor: Preprocess turns a file into documents, Postprocess turns
// the engine's per-document messages back into one list for the file.
//
// The anchors computed by Preprocess travel to Postprocess through a
// registry keyed by file name, for engines that cannot carry extra state
// between the two calls.
package processor

import (
	"context"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/remap"
	"doccheck/internal/source"
	"doccheck/internal/trace"
	"doccheck/internal/vdoc"
)

type Processor struct {
	Extractor *codeblock.Extractor
	Registry  *vdoc.Registry
	Remapper  *remap.Remapper
	Tracer    trace.Tracer
}

// New wires a processor around registry; nil selects vdoc.Default.
func New(extractor *codeblock.Extractor, registry *vdoc.Registry, tracer trace.Tracer) *Processor {
	if extractor == nil {
		extractor = &codeblock.Extractor{}
	}
	if registry == nil {
		registry = vdoc.Default
	}
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Processor{
		Extractor: extractor,
		Registry:  registry,
		Remapper:  remap.New(registry, tracer),
		Tracer:    tracer,
	}
}

// Preprocess extracts file and registers its anchors under filename.
// Document 0 is the file itself.
func (p *Processor) Preprocess(ctx context.Context, file *source.File, filename string) (*codeblock.Extraction, error) {
	ex, err := p.Extractor.Extract(ctx, file, filename)
	if err != nil {
		return nil, err
	}
	if p.Registry.Put(filename, ex.Anchors) {
		trace.Point(p.Tracer, trace.ScopeFile, "registry.overwrite", "pending anchors replaced", map[string]string{"file": filename})
	}
	return ex, nil
}

// PreprocessText is Preprocess over in-memory text.
func (p *Processor) PreprocessText(ctx context.Context, text, filename string) ([]codeblock.Document, error) {
	ex, err := p.Preprocess(ctx, source.NewVirtualFile(filename, []byte(text)), filename)
	if err != nil {
		return nil, err
	}
	return ex.Documents, nil
}

// Postprocess remaps perDoc, which must follow the order of the documents
// returned by Preprocess for the same filename.
func (p *Processor) Postprocess(filename string, perDoc [][]diag.Message) remap.Result {
	return p.Remapper.Remap(filename, perDoc)
}
