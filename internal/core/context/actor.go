// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ActorContext contains the authenticated actor performing the request.
// Populated by upstream auth middleware, consumed by services for audit fields.
type ActorContext struct {
	ActorID string
	Name    string
	Roles   []string
}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorID returns actor ID from context or empty string.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.ActorID
	}
	return ""
}

// HasRole checks if actor has specific role.
func HasRole(ctx context.Context, role string) bool {
	a := GetActor(ctx)
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
