package middleware

import (
	"context"
	"errors"

	"github.com/amirrudd/flyerboard/internal/platform/auth"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor authenticates every method not listed in publicMethods and
// stores the caller's identity in the context.
func AuthInterceptor(jwtSecret string, log *logger.Logger, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			log.Warn("AuthInterceptor: missing metadata", zap.String("method", info.FullMethod))
			return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
		}
		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			log.Warn("AuthInterceptor: authorization header not found", zap.String("method", info.FullMethod))
			return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
		}
		tokenString, ok := auth.BearerToken(authHeaders[0])
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "authorization token format is invalid, expected 'Bearer <token>'")
		}

		claims, err := auth.ParseToken(tokenString, jwtSecret)
		if err != nil {
			log.Warn("AuthInterceptor: token rejected", zap.String("method", info.FullMethod), zap.Error(err))
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, "token has expired")
			}
			return nil, status.Errorf(codes.Unauthenticated, "token is invalid: %v", err)
		}

		log.Debug("AuthInterceptor: authenticated", zap.String("method", info.FullMethod), zap.String("user_id", claims.UserID))
		return handler(auth.WithUser(ctx, claims), req)
	}
}
