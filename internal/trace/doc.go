// Package trace is the logging layer of doccheck.
//
// Events are emitted by the driver, the extractor and the remapper and are
// written by one of several tracers:
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped on failure
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only error events
//   - LevelPhase: run and stage boundaries
//   - LevelDetail: per-file events
//   - LevelDebug: everything including per-document events
//
// # Usage
//
//	doccheck check --trace=- --trace-level=detail src/
//
// Tracers travel through the pipeline in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "check", 0)
//	defer span.End("")
package trace
