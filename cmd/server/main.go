package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/sumire/firstissues/internal/ai"
	"github.com/sumire/firstissues/internal/cache"
	"github.com/sumire/firstissues/internal/config"
	"github.com/sumire/firstissues/internal/discovery"
	"github.com/sumire/firstissues/internal/domain"
	"github.com/sumire/firstissues/internal/github"
	"github.com/sumire/firstissues/internal/handler"
	"github.com/sumire/firstissues/internal/logger"
	"github.com/sumire/firstissues/internal/repository"
	"github.com/sumire/firstissues/internal/service"
	"github.com/sumire/firstissues/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Setup(cfg)

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected")

	if err := repository.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	caches, closeCaches, err := newCaches(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCaches()

	gh := github.NewClient(
		github.WithBaseURL(cfg.GitHub.BaseURL),
		github.WithTimeout(cfg.GitHub.Timeout),
	)

	classifyAI, summaryAI, err := newCompleters(cfg.OpenAI)
	if err != nil {
		return err
	}

	d := cfg.Discovery
	planner := discovery.NewPlanner(gh, discovery.PlannerPolicy{
		InitialStars:      d.InitialStars,
		InitialForks:      d.InitialForks,
		StarStep:          d.StarStep,
		ForkStep:          d.ForkStep,
		RecencyMonths:     d.RecencyMonths,
		RecencyStepMonths: d.RecencyStepMonths,
		MaxAttempts:       d.MaxAttempts,
	})
	classifier := discovery.NewClassifier(classifyAI, caches.difficulty, cfg.Cache.CacheNegatives)
	summarizer := discovery.NewSummarizer(summaryAI, caches.summary, cfg.Cache.CacheNegatives)
	repos := discovery.NewRepositoryCache(gh, caches.repository)
	enricher := discovery.NewEnricher(classifier, repos, summarizer, d.EnrichConcurrency)
	discoverySvc := discovery.NewService(planner, enricher, summarizer, gh, discovery.RankPolicy{
		PopularityFloor: d.PopularityFloor,
		MinResults:      d.MinResults,
	})

	userRepo := repository.NewUserRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	savedRepo := repository.NewSavedIssueRepository(db)

	authSvc := service.NewAuthService(userRepo, gh, service.AuthConfig{
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		GitHubRedirectURL:  cfg.GitHubRedirectURL,
		JWTSecret:          cfg.JWTSecret,
	})
	prefSvc := service.NewPreferenceService(prefRepo)
	savedSvc := service.NewSavedIssueService(savedRepo)

	authHandler := handler.NewAuthHandler(authSvc)
	issueHandler := handler.NewIssueHandler(discoverySvc, authSvc, prefSvc)
	prefHandler := handler.NewPreferenceHandler(prefSvc)
	savedHandler := handler.NewSavedIssueHandler(savedSvc)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewAppValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(handler.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))))

	e.GET("/health", func(c echo.Context) error {
		return handler.JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.GET("/github", authHandler.GitHubRedirect)
	authGroup.GET("/github/callback", authHandler.GitHubCallback)
	authGroup.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := api.Group("", handler.JWTAuth(authSvc))
	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/profile", authHandler.Profile)

	protected.GET("/issues", issueHandler.List)
	protected.GET("/issues/:number", issueHandler.Detail)
	protected.GET("/issues/:number/debug-tips", issueHandler.DebugTips)
	protected.POST("/ai/summary", issueHandler.Summarize)

	protected.GET("/preferences", prefHandler.Get)
	protected.POST("/preferences", prefHandler.Save)

	protected.GET("/saved-issues", savedHandler.List)
	protected.POST("/saved-issues", savedHandler.Create)
	protected.DELETE("/saved-issues/:issueId", savedHandler.Delete)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

type enrichmentCaches struct {
	difficulty cache.Cache[domain.Difficulty]
	summary    cache.Cache[string]
	repository cache.Cache[domain.RepositoryMetadata]
}

func newCaches(ctx context.Context, cfg config.CacheConfig) (enrichmentCaches, func(), error) {
	if cfg.Backend == "lru" {
		slog.Info("using in-memory caches", "size", cfg.Size, "ttl", cfg.TTL)
		return enrichmentCaches{
			difficulty: cache.NewLRU[domain.Difficulty](cfg.Size, cfg.TTL),
			summary:    cache.NewLRU[string](cfg.Size, cfg.TTL),
			repository: cache.NewLRU[domain.RepositoryMetadata](cfg.Size, cfg.TTL),
		}, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return enrichmentCaches{}, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return enrichmentCaches{}, nil, fmt.Errorf("connect redis: %w", err)
	}

	slog.Info("using redis caches", "addr", opts.Addr, "ttl", cfg.TTL)
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Error("redis close failed", "error", err)
		}
	}
	return enrichmentCaches{
		difficulty: cache.NewRedis[domain.Difficulty](client, "firstissues:difficulty:", cfg.TTL),
		summary:    cache.NewRedis[string](client, "firstissues:summary:", cfg.TTL),
		repository: cache.NewRedis[domain.RepositoryMetadata](client, "firstissues:repo:", cfg.TTL),
	}, closeFn, nil
}

func newCompleters(cfg config.OpenAIConfig) (classify, summarize ai.Completer, err error) {
	if !cfg.Enabled() {
		slog.Warn("OPENAI_API_KEY not set, AI enrichment disabled")
		return ai.Disabled{}, ai.Disabled{}, nil
	}

	classifyClient, err := ai.New(ai.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ClassifyModel,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create classify client: %w", err)
	}

	summaryClient, err := ai.New(ai.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.SummaryModel,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create summary client: %w", err)
	}

	slog.Info("ai enrichment enabled",
		"classify_model", classifyClient.Model(),
		"summary_model", summaryClient.Model())
	return classifyClient, summaryClient, nil
}
