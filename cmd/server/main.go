package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/prompt-studio/config"
	"github.com/ErlanBelekov/prompt-studio/internal/email"
	"github.com/ErlanBelekov/prompt-studio/internal/health"
	"github.com/ErlanBelekov/prompt-studio/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/prompt-studio/internal/log"
	"github.com/ErlanBelekov/prompt-studio/internal/metrics"
	"github.com/ErlanBelekov/prompt-studio/internal/ratelimit"
	"github.com/ErlanBelekov/prompt-studio/internal/session"
	"github.com/ErlanBelekov/prompt-studio/internal/sweeper"
	httptransport "github.com/ErlanBelekov/prompt-studio/internal/transport/http"
	"github.com/ErlanBelekov/prompt-studio/internal/transport/http/handler"
	"github.com/ErlanBelekov/prompt-studio/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if cfg.RunMigrations {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			stop()
			log.Fatalf("migrate: %v", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	deps := map[string]health.Pinger{"postgres": pool}

	// Rate limiting
	var (
		store       ratelimit.Store
		memoryStore *ratelimit.MemoryStore
	)
	switch cfg.RateLimitBackend {
	case "redis":
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		redisStore := ratelimit.NewRedisStore(client)
		store = redisStore
		deps["redis"] = redisStore
	default:
		memoryStore = ratelimit.NewMemoryStore()
		store = memoryStore
	}
	limiter := ratelimit.New(store)

	// Auth
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewVerificationTokenRepository(pool)
	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	sessions := session.NewManager([]byte(cfg.JWTSecret), cfg.SessionTTL)

	verificationUsecase := usecase.NewVerificationUsecase(tokenRepo, userRepo, logger)
	authUsecase := usecase.NewAuthUsecase(userRepo, verificationUsecase, emailSender, cfg.AppBaseURL, logger)

	// Prompts
	promptRepo := postgres.NewPromptRepository(pool)
	promptUsecase := usecase.NewPromptUsecase(promptRepo, logger)

	handlers := httptransport.Handlers{
		Auth:    handler.NewAuthHandler(authUsecase, verificationUsecase, sessions, limiter, cfg.ExposeTokens(), logger),
		Account: handler.NewAccountHandler(authUsecase, logger),
		Prompt:  handler.NewPromptHandler(promptUsecase, logger),
	}

	metrics.Register()
	checker := health.NewChecker(deps, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, handlers, sessions, cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	var sw *sweeper.Sweeper
	if memoryStore != nil {
		sw = sweeper.New(memoryStore, tokenRepo, logger)
	} else {
		sw = sweeper.New(nil, tokenRepo, logger)
	}
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		if err := sw.Start(ctx, sweeper.DefaultWindowSpec, sweeper.DefaultTokenSpec); err != nil {
			logger.Error("sweeper", "error", err)
		}
	}()

	go func() {
		logger.Info("server started", "port", cfg.Port, "rate_limit_backend", cfg.RateLimitBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	<-sweeperDone
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
