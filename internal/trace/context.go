package trace

import "context"

type ctxKey struct{}

// ctxState is what a context carries: the tracer and the innermost span.
type ctxState struct {
	tracer Tracer
	span   uint64
}

func stateOf(ctx context.Context) ctxState {
	if ctx != nil {
		if st, ok := ctx.Value(ctxKey{}).(ctxState); ok {
			return st
		}
	}
	return ctxState{tracer: Nop}
}

// WithTracer returns ctx carrying t. A nil t means Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, ctxState{tracer: t})
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return stateOf(ctx).tracer
}

// WithSpan makes s the parent of spans begun from the returned context.
// An inert span keeps the current parent.
func WithSpan(ctx context.Context, s *Span) context.Context {
	st := stateOf(ctx)
	if s.ID() == 0 {
		return ctx
	}
	st.span = s.ID()
	return context.WithValue(ctx, ctxKey{}, st)
}

// ParentID returns the span recorded by WithSpan, or 0.
func ParentID(ctx context.Context) uint64 {
	return stateOf(ctx).span
}
