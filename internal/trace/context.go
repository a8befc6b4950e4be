package trace

import "context"

// carrier is the only value this package stores in a context: the tracer
// plus the span that children started from that context attach to.
type carrier struct {
	tracer Tracer
	span   SpanContext
}

type carrierKey struct{}

func load(ctx context.Context) carrier {
	if ctx != nil {
		if c, ok := ctx.Value(carrierKey{}).(carrier); ok {
			return c
		}
	}
	return carrier{tracer: Nop}
}

func store(ctx context.Context, c carrier) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, carrierKey{}, c)
}

// SpanContext identifies the active span of a context.
// The zero value means "no parent".
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

// FromContext returns the tracer stored in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return load(ctx).tracer
}

// WithTracer stores t in ctx. The active span is kept.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	c := load(ctx)
	c.tracer = t
	return store(ctx, c)
}

// CurrentSpan returns the active span of ctx.
func CurrentSpan(ctx context.Context) SpanContext {
	return load(ctx).span
}

// WithSpan makes s the parent of spans started from the returned context.
// Disabled spans leave ctx unchanged.
func WithSpan(ctx context.Context, s *Span) context.Context {
	if s == nil || s.id == 0 {
		return ctx
	}
	c := load(ctx)
	c.span = SpanContext{SpanID: s.id, GID: s.gid}
	return store(ctx, c)
}

// Start begins a span with the tracer and parent found in ctx and returns a
// context in which the new span is active.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	c := load(ctx)
	s := Begin(c.tracer, scope, name, c.span.SpanID)
	return WithSpan(ctx, s), s
}
