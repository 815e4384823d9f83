package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

const RoleProduction = "production"

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor placed by the interceptor or middleware, falling back
// to x-user-id / x-user-role metadata for trusted in-cluster callers.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	var a Actor
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-user-id"); len(v) > 0 {
			a.UserID = v[0]
		}
		if v := md.Get("x-user-role"); len(v) > 0 {
			a.Role = v[0]
		}
	}
	return a
}
