package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpctx "api-gateway/internal/api/http/context"
	"api-gateway/internal/api/http/router"
	httpServer "api-gateway/internal/api/http/server"
	"api-gateway/internal/cache"
	"api-gateway/internal/config"
	"api-gateway/internal/logger"
	"api-gateway/internal/model"
	"api-gateway/internal/proxy"
	"api-gateway/internal/ratelimit"
	"api-gateway/internal/repository/postgres"
	"api-gateway/internal/server"
	"api-gateway/internal/service"
	"api-gateway/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	redisClient, err := newRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	accountRepo := postgres.NewAccountRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	tokenCache := cache.NewRedisCacheFromClient(redisClient, logger)

	authService := service.NewAuth(accountRepo, tokenCache, tokenManager, logger)
	ctxMgr := httpctx.NewManager()

	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient), logger)
	loginBuckets := ratelimit.NewBucketStore(2, 5)
	loginBuckets.StartJanitor(ctx, 2*time.Minute)

	forwarder := proxy.NewForwarder(cfg.Upstream.Timeout, logger)

	gatewayRouter := router.New(authService, forwarder, limiter, loginBuckets, router.Upstreams{
		SearchBaseURL:    cfg.Upstream.SearchURL,
		UsersBaseURL:     cfg.Upstream.UsersURL,
		MerchantsBaseURL: cfg.Upstream.MerchantsURL,
	}, ctxMgr, logger)
	gatewayServer := httpServer.NewHTTPServer(gatewayRouter.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(gatewayServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := gatewayServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", gatewayServer.Address())
	}

	if err := gatewayRouter.Drain(shutdownCtx); err != nil {
		logger.Error("error draining background work", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
