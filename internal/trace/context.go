package trace

import "context"

type spanContextKey struct{}

// ContextWithSpan returns a context carrying the given span id as the
// current parent for nested work (tool calls started by an agent nest under
// the agent's span).
func ContextWithSpan(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanContextKey{}, spanID)
}

// SpanFromContext returns the current span id from the context, or an empty
// string when no span is active.
func SpanFromContext(ctx context.Context) string {
	id, _ := ctx.Value(spanContextKey{}).(string)
	return id
}
