// Package requestid carries the per-request correlation id through a context.
//
// The middleware package sets it from the X-Request-ID header (or a fresh
// UUID v4), the service stamps it on audit events and the handler echoes it
// in error bodies.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header the id is read from and echoed in.
const Header = "X-Request-ID"

type ctxKey struct{}

// New returns a random UUID v4 string.
func New() string {
	return uuid.NewString()
}

// With returns a copy of ctx carrying id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the id stored in ctx, or "" when none was set.
func From(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
