package trace

import "context"

// frame is the tracing state a context carries: the tracer, the innermost
// open span and the Ruby file being linted under it.
type frame struct {
	tracer Tracer
	span   uint64
	file   string
}

type frameKey struct{}

func frameOf(ctx context.Context) frame {
	if ctx == nil {
		return frame{tracer: Nop}
	}
	if f, ok := ctx.Value(frameKey{}).(frame); ok {
		return f
	}
	return frame{tracer: Nop}
}

func (f frame) attach(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, frameKey{}, f)
}

// FromContext returns the tracer of ctx, Nop when none is attached.
func FromContext(ctx context.Context) Tracer {
	return frameOf(ctx).tracer
}

// WithTracer attaches t to ctx. Span and file of an enclosing frame survive,
// so a tracer can be swapped mid-run.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	f := frameOf(ctx)
	f.tracer = t
	return f.attach(ctx)
}

// enter returns ctx with span id as the innermost one; an inert span (id 0)
// keeps the enclosing parent. A file span names the file every nested event
// reports, even when the level does not record file spans.
func enter(ctx context.Context, scope Scope, name string, id uint64) context.Context {
	f := frameOf(ctx)
	if id != 0 {
		f.span = id
	}
	if scope == ScopeFile {
		f.file = name
	}
	return f.attach(ctx)
}
