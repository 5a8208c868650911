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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/fight-edge/internal/api"
	"github.com/stitts-dev/fight-edge/internal/api/handlers"
	"github.com/stitts-dev/fight-edge/internal/llm"
	"github.com/stitts-dev/fight-edge/internal/repository"
	"github.com/stitts-dev/fight-edge/internal/services"
	"github.com/stitts-dev/fight-edge/internal/websocket"
	"github.com/stitts-dev/fight-edge/pkg/config"
	"github.com/stitts-dev/fight-edge/pkg/database"
	"github.com/stitts-dev/fight-edge/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithService("fight-edge")
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
		"provider":    cfg.LLMProvider,
		"workers":     cfg.AnalysisWorkers,
	}).Info("Starting fight edge service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	backend, err := llm.NewBackend(cfg, structuredLogger)
	if err != nil {
		log.Fatalf("Failed to create generation backend: %v", err)
	}

	cacheService := services.NewCacheService(redisClient, structuredLogger)
	promptBuilder := services.NewPromptBuilder(structuredLogger)
	retry := services.RetryPolicy{
		MaxRetries: cfg.GenerationRetries,
		Backoff:    cfg.GenerationRetryBackoff,
	}
	fightAnalyzer := services.NewFightAnalyzer(
		services.NewSummaryAdapter(backend, promptBuilder, services.AdapterConfig{MaxOutputTokens: cfg.SummaryMaxTokens, Retry: retry}, structuredLogger),
		services.NewBreakdownAdapter(backend, promptBuilder, services.AdapterConfig{MaxOutputTokens: cfg.BreakdownMaxTokens, Retry: retry}, structuredLogger),
		structuredLogger,
	)
	var overview services.OverviewGenerator
	if cfg.EnableCardOverview {
		overview = services.NewCardOverview(backend, promptBuilder, cfg.SummaryMaxTokens, structuredLogger)
	}
	cardAnalyzer := services.NewCardAnalyzer(fightAnalyzer, overview, cfg.AnalysisWorkers, structuredLogger)
	runService := services.NewRunService(
		cardAnalyzer,
		repository.NewRunRepository(db),
		cacheService,
		services.NewRedisProgressPublisher(cacheService, structuredLogger),
		services.RunServiceConfig{
			ResultCacheTTL: cfg.ResultCacheTTL,
			RunsPerHour:    cfg.AnalysisRateLimit,
		},
		structuredLogger,
	)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	progressHub := websocket.NewProgressHub(cacheService, cfg.CorsOrigins, structuredLogger)
	go progressHub.Run(hubCtx)

	router := api.NewRouter(cfg, api.Handlers{
		Analysis:  handlers.NewAnalysisHandler(runService, structuredLogger),
		Odds:      handlers.NewOddsHandler(),
		Health:    handlers.NewHealthHandler(db, cacheService, backend, progressHub, structuredLogger),
		Websocket: progressHub.HandleWebSocket,
	})

	// Card analysis holds the request open for the whole run, so there is no write timeout.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Fight edge service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down fight edge service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	stopHub()

	log.Info("Fight edge service exited")
}
