package global

import (
	"context"
)

type scenarioKey struct{}
type requestKey struct{}

// WithScenarioID tags the context so that logs carry the scenario identifier.
// The raw identifier is kept as received, even if not numeric.
func WithScenarioID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scenarioKey{}, id)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

// RequestID returns the request identifier of the context, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestKey{}).(string); ok {
		return id
	}
	return ""
}
