package server

import (
	"context"
	"net"
	"time"

	grpctransport "github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/grpc"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/grpc/middleware"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/config"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 5 * time.Second

// NewGRPCServer собирает сервер с interceptor-ами и зарегистрированным TokenVerifier.
func NewGRPCServer(cfg *config.Config, handler grpctransport.TokenVerifierServer, logger *zap.Logger) (*grpc.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger, cfg.RateLimit, cfg.RateBurst)),
	}
	if cfg.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load gRPC TLS credentials")
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	grpctransport.RegisterTokenVerifierServer(grpcServer, handler)
	grpc_prometheus.Register(grpcServer)
	grpc_prometheus.EnableHandlingTimeHistogram()
	reflection.Register(grpcServer)
	return grpcServer, nil
}

// StartGRPCServer блокируется до отмены ctx, затем делает graceful stop.
func StartGRPCServer(ctx context.Context, cfg *config.Config, handler grpctransport.TokenVerifierServer, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPCAddress)
	}
	grpcServer, err := NewGRPCServer(cfg, handler, logger)
	if err != nil {
		_ = lis.Close()
		return err
	}
	return serveGRPC(ctx, grpcServer, lis, logger)
}

func serveGRPC(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- errors.Wrap(err, "serve gRPC")
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-stopCtx.Done():
		grpcServer.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}
