package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartHTTPServer serves plain HTTP or HTTPS depending on config and shuts down when ctx is cancelled.
func StartHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.HTTPAddress)
	}
	return serveHTTP(ctx, cfg, NewHTTPServer(cfg, handler), lis, logger)
}

func serveHTTP(ctx context.Context, cfg *config.Config, srv *http.Server, lis net.Listener, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", lis.Addr().String()),
			zap.Bool("tls", cfg.TLSEnabled()),
		)
		var err error
		if cfg.TLSEnabled() {
			err = srv.ServeTLS(lis, cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- errors.Wrap(err, "serve HTTP")
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping HTTP server")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		return errors.Wrap(err, "shutdown HTTP")
	}
	logger.Info("HTTP server stopped")
	return nil
}
