// Package actor carries the acting identity through context.
// Identity is established by excluded collaborators (HTTP middleware, CLI);
// the core only reads it for audit attribution.
package actor

import (
	"context"
)

// Actor identifies who performs an operation.
type Actor struct {
	// ID is the stable subject identifier (e.g. JWT sub)
	ID string

	// Name is a display name for audit trails
	Name string
}

type actorKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor from context, if set.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// Name returns the actor ID for audit fields, or "system" when the
// operation has no attributed caller (migrations, scheduled jobs).
func Name(ctx context.Context) string {
	if a, ok := FromContext(ctx); ok && a.ID != "" {
		return a.ID
	}
	return "system"
}
