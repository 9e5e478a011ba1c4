package middleware

import (
	"context"
	"testing"

	"github.com/amirrudd/flyerboard/internal/platform/auth"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestAuthInterceptor(t *testing.T) {
	interceptor := AuthInterceptor("s3cret", logger.NewNop(), map[string]bool{"/svc/Public": true})
	var seenUser string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seenUser, _ = auth.UserIDFromContext(ctx)
		return "ok", nil
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Public"}, handler)
	require.NoError(t, err)
	assert.Empty(t, seenUser)

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Private"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Token abc"))
	_, err = interceptor(bad, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Private"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{UserID: "u9"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Private"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "u9", seenUser)
}
