package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	v1 "github.com/sehabur/bookmate-backend/cmd/api/router/v1"
	"github.com/sehabur/bookmate-backend/internal/config"
	cacheAdapter "github.com/sehabur/bookmate-backend/internal/infrastructure/cache/adapter"
	cacheport "github.com/sehabur/bookmate-backend/internal/infrastructure/cache/port"
	"github.com/sehabur/bookmate-backend/internal/infrastructure/database"
	"github.com/sehabur/bookmate-backend/internal/infrastructure/middleware"
	queueAdapter "github.com/sehabur/bookmate-backend/internal/infrastructure/queue/adapter"
	"github.com/sehabur/bookmate-backend/internal/infrastructure/realtime"
	"github.com/sehabur/bookmate-backend/internal/pkg/auth"
	chathttp "github.com/sehabur/bookmate-backend/internal/pkg/chat/presentation/http"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/task"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.IsDevelopment() {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable stores
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Profile cache; optional, the service runs without it.
	var cache cacheport.Cache
	if cfg.RedisURL != "" {
		rc, err := cacheAdapter.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rc.Close()
		cache = rc
	}

	// Background queue: client for the REST send path, in-process worker so
	// queued deliveries share the live presence registry.
	queueClient, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create queue client")
	}
	defer queueClient.Close()

	queueServer, err := queueAdapter.NewAsynqServer(cfg.RedisURL, cfg.QueueConcurrency, cfg.QueueWeights, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create queue server")
	}

	registry := realtime.NewRegistry()
	defer registry.Close()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTLifetime)

	handlers := chathttp.Wire(chathttp.Deps{
		Pool:       pool,
		Queue:      queueClient,
		Registry:   registry,
		Cache:      cache,
		Tokens:     tokens,
		Log:        logger,
		ProfileTTL: cfg.ProfileCacheTTL,
	})

	task.RegisterDeliverMessageTask(queueServer, handlers.Deliver)
	task.RegisterOrderAcceptedTask(queueServer, handlers.Create)

	go func() {
		if err := queueServer.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("queue server stopped")
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1.RegisterRoutes(r, handlers)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
