package middleware

import (
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const (
	rateLimitCacheSize = 10_000
	rateLimitIdleTTL   = time.Hour
)

func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return grpc_recovery.UnaryServerInterceptor()
}

func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_zap.UnaryServerInterceptor(logger)
}

func MetricsInterceptor() grpc.UnaryServerInterceptor {
	return grpc_prometheus.UnaryServerInterceptor
}

// ChainUnaryServer orders interceptors outermost first; a limit of zero disables rate limiting.
func ChainUnaryServer(logger *zap.Logger, limit float64, burst int) grpc.UnaryServerInterceptor {
	chain := []grpc.UnaryServerInterceptor{
		RecoveryInterceptor(),
		LoggingInterceptor(logger),
		MetricsInterceptor(),
	}
	if limit > 0 {
		chain = append(chain, NewRateLimitPerIP(limit, burst, rateLimitCacheSize, rateLimitIdleTTL))
	}
	return grpc_middleware.ChainUnaryServer(chain...)
}
