// Package projectctx carries the project a request is scoped to.
package projectctx

import "context"

type ctxKey struct{}

// GinKey is the gin context key holding the same value.
const GinKey = "project_id"

func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, projectID)
}

// FromContext returns the scoped project id, or false when the request is
// not scoped to a project.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
