package auth

import (
	"context"
	"strings"

	"github.com/fekuna/fabshop-inventory-service/internal/apperr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryInterceptor resolves the actor from the authorization metadata. With required
// set, calls without a valid token are rejected; health and reflection are always open.
func UnaryInterceptor(parser *TokenParser, required bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}
		var raw string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("authorization"); len(v) > 0 {
				raw = v[0]
			}
		}
		if raw == "" {
			if required {
				return nil, apperr.Unauthenticated("missing bearer token")
			}
			return handler(ctx, req)
		}
		actor, err := parser.Parse(raw)
		if err != nil {
			return nil, apperr.Unauthenticated("invalid bearer token")
		}
		return handler(WithActor(ctx, actor), req)
	}
}

func isPublicMethod(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, "/grpc.health.v1.Health/") ||
		strings.HasPrefix(fullMethod, "/grpc.reflection.")
}
