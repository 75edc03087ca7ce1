package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pgrepo "github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/db/postgres"
	redisrepo "github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/db/redis"
	grpctransport "github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/grpc"
	httptransport "github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http"
	httpmw "github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/ledger"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/password"
	authsvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/service"
	notessvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/notes/service"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/app/sweeper"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/clock"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("info").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tokenRepo repo.RefreshTokenRepo
	switch cfg.RefreshStore {
	case config.RefreshStoreRedis:
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		if err := redisCli.Ping(rootCtx).Err(); err != nil {
			zapLog.Fatal("redis ping", zap.Error(err))
		}
		tokenRepo = redisrepo.NewRedisRefreshTokenRepo(redisCli)
	default:
		tokenRepo = pgrepo.NewPostgresRefreshTokenRepo(db)
	}
	zapLog.Info("refresh token store selected", zap.String("store", cfg.RefreshStore))

	clk := clock.NewReal()
	jwtUtil, err := jwt.NewJWTUtil(cfg, clk, zapLog)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}
	refreshLedger := ledger.New(tokenRepo, clk, cfg.RefreshTokenTTL, zapLog)
	validate := authsvc.NewValidator()

	authService := authsvc.New(
		pgrepo.NewPostgresUserRepo(db),
		pgrepo.NewPostgresRoleRepo(db),
		jwtUtil,
		refreshLedger,
		password.NewArgon2id(cfg.PasswordPepper, password.DefaultParams),
		clk,
		cfg,
		validate,
		zapLog,
	)
	notesService := notessvc.New(pgrepo.NewPostgresNoteRepo(db), validate)

	prometheus.MustRegister(httpmw.MetricsCollectors()...)
	prometheus.MustRegister(sweeper.Collectors()...)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:   authService,
		Notes:  notesService,
		Config: cfg,
		Log:    zapLog,
	})
	grpcHandler := grpctransport.NewHandler(authService, zapLog)
	sweep := sweeper.New(refreshLedger, clk, cfg.SweepInterval, zapLog)

	g, ctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg, router, zapLog)
	})
	g.Go(func() error {
		return server.StartGRPCServer(ctx, cfg, grpcHandler, zapLog)
	})
	g.Go(func() error {
		return sweep.Run(ctx)
	})

	<-ctx.Done()
	zapLog.Info("shutdown signal received")
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
