package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"session-authority/internal/authz"
)

// AuthzUnary returns a unary interceptor applying the declarative role/device
// allow-lists. It runs strictly after the request gate and only consults the
// identity the gate attached; requests without one (public methods) pass
// through unchanged.
func AuthzUnary(evaluator authz.Evaluator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if evaluator == nil {
			return handler(ctx, req)
		}
		id, ok := GetIdentity(ctx)
		if !ok {
			return handler(ctx, req)
		}
		allowed, err := evaluator.Allow(ctx, authz.Input{
			Method:      info.FullMethod,
			Role:        id.Role,
			DeviceClass: id.DeviceClass,
		})
		if err != nil {
			return nil, status.Error(codes.Internal, "authorization evaluation failed")
		}
		if !allowed {
			return nil, status.Error(codes.PermissionDenied, "operation not permitted")
		}
		return handler(ctx, req)
	}
}
