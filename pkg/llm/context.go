package llm

import (
	"context"
)

type contextKey string

const (
	llmContextKey contextKey = "llm_context"

	operationKey = "operation"
)

// Operation labels used for request metrics.
const (
	OperationPlan      = "plan"
	OperationSummarize = "summarize"
	OperationChat      = "chat"
	OperationUnknown   = "unknown"
)

// WithContext returns a context with request annotations attached.
// The values are merged with any existing annotations.
func WithContext(ctx context.Context, values map[string]any) context.Context {
	existing := GetContext(ctx)
	if existing == nil {
		existing = make(map[string]any, len(values))
	}
	for k, v := range values {
		existing[k] = v
	}
	return context.WithValue(ctx, llmContextKey, existing)
}

// GetContext returns a copy of the request annotations, if present.
func GetContext(ctx context.Context) map[string]any {
	c, ok := ctx.Value(llmContextKey).(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// WithOperation tags ctx with the caller's operation name.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithContext(ctx, map[string]any{operationKey: operation})
}

// OperationFrom returns the operation tagged by WithOperation, or OperationUnknown.
func OperationFrom(ctx context.Context) string {
	if op, ok := GetContext(ctx)[operationKey].(string); ok && op != "" {
		return op
	}
	return OperationUnknown
}
