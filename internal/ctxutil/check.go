// Package ctxutil provides context helpers shared by the pipeline steps.
package ctxutil

import "context"

// Canceled returns the context error once ctx is done, nil otherwise.
// Steps call it on entry so a canceled run stops before starting the next tool.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
