package discovery

import (
	"context"
	"log/slog"
)

// withFallback runs op and returns def when it fails or panics. It is the
// only place enrichment errors are absorbed.
func withFallback[T any](ctx context.Context, step string, def T, op func(context.Context) (T, error)) (result T) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "enrichment step panicked", "step", step, "panic", r)
			result = def
		}
	}()

	v, err := op(ctx)
	if err != nil {
		slog.WarnContext(ctx, "enrichment step failed, using default", "step", step, "error", err)
		return def
	}
	return v
}
