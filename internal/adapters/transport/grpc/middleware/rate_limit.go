package middleware

import (
	"context"
	"net"
	"time"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var errRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// NewRateLimitPerIP limits unary calls per peer host. Calls without peer info are rejected.
func NewRateLimitPerIP(limit float64, burst, cacheSize int, idleTTL time.Duration) grpc.UnaryServerInterceptor {
	visitors := ratelimit.NewPerKey(limit, burst, cacheSize, idleTTL)

	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		host, ok := peerHost(ctx)
		if !ok || !visitors.Allow(host) {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}

func peerHost(ctx context.Context) (string, bool) {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "", false
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String(), true
	}
	return host, true
}
