package async

import (
	"context"

	"github.com/m-mizutani/ctxlog"
)

// Detach returns a context that outlives its caller's cancellation and
// deadline. Values, including the ctxlog logger, are preserved so work
// started on behalf of a request keeps logging with request attributes.
func Detach(ctx context.Context) context.Context {
	newCtx := context.WithoutCancel(ctx)

	// Preserve logger
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))

	return newCtx
}
