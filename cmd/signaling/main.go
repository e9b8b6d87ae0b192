package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/loftwing/cinesync/config"
	"github.com/loftwing/cinesync/internal/handlers"
	"github.com/loftwing/cinesync/internal/hub"
	"github.com/loftwing/cinesync/internal/middleware"
	"github.com/loftwing/cinesync/internal/ratelimit"
	"github.com/loftwing/cinesync/internal/room"
	sig "github.com/loftwing/cinesync/internal/signal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	limiter := buildLimiter(cfg)

	registry := room.NewRegistry()
	transport := hub.New()
	ids := hub.UUIDGenerator{}

	membership := sig.NewMembership(registry, transport)
	router := sig.NewRouter(registry, transport, ids)
	dispatcher := sig.NewDispatcher(membership, router, transport, limiter)

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/login", handlers.Login(cfg.JWTSecret))
		apiGroup.GET("/rooms", middleware.JWTAuth(cfg.JWTSecret), handlers.ListRooms(registry))
		apiGroup.GET("/rooms/:roomName", handlers.GetRoomStatus(registry))
		apiGroup.DELETE("/rooms/:roomName", middleware.JWTAuth(cfg.JWTSecret), handlers.CloseRoom(registry, dispatcher))
	}

	r.GET("/ws", handlers.HandleSignaling(cfg, transport, dispatcher, ids))

	// The client app itself; media never flows through here.
	r.Static("/app", cfg.StaticPath)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("cinesync signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

// buildLimiter picks the attempt-throttle backend: redis when an addr
// is configured and reachable, in-process memory otherwise.
func buildLimiter(cfg *config.Config) sig.Limiter {
	if cfg.Redis.Addr == "" {
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Attempts, cfg.RateLimit.Interval)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, falling back to in-memory rate limiting")
		_ = client.Close()
		return ratelimit.NewMemoryLimiter(cfg.RateLimit.Attempts, cfg.RateLimit.Interval)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis rate limiter enabled")
	return ratelimit.NewRedisLimiter(client, cfg.RateLimit.Attempts, cfg.RateLimit.Interval)
}
