package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"prospector/internal/analyzer"
	"prospector/internal/api"
	prospectorconfig "prospector/internal/config"
	"prospector/internal/fetch"
	"prospector/internal/generation"
	"prospector/internal/scheduler"
	"prospector/internal/store"
	"prospector/internal/taxonomy"
	"prospector/pkg/config"
	"prospector/pkg/database"
	"prospector/pkg/llm"
	"prospector/pkg/logging"
	"prospector/pkg/monitoring"
	"prospector/pkg/server"
)

const serviceVersion = "1.0.0"

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("prospector")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Prospector (social post scoring & reply suggestions)")

	cfg, err := prospectorconfig.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	st := store.New(db)

	// Embedding cache backend: Redis when configured, Postgres otherwise
	var cacheStore taxonomy.CacheStore = taxonomy.NewSQLCacheStore(db)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		cacheStore = taxonomy.NewRedisCacheStore(redisClient, 0)
	}

	// LLM gateways
	completionClient, err := llm.NewCompletionClient(cfg.LLM)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create completion client")
	}
	embeddingClient, err := llm.NewEmbeddingClient(cfg.Embedding)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create embedding client")
	}

	// Pipeline components
	topicCache := taxonomy.NewCache(embeddingClient, cacheStore, logger)
	fetcher := fetch.NewFetcher(st, logger)
	limiter := generation.NewSlidingWindowLimiter(cfg.RateLimitCalls, cfg.RateLimitSpan)
	engine := generation.NewEngine(completionClient, limiter, st, cfg.Generation, logger)

	runner := analyzer.New(st, st, fetcher, embeddingClient, topicCache, engine, analyzer.Config{
		GateRules:      cfg.GateRules,
		Weights:        cfg.Weights,
		Thresholds:     cfg.Thresholds,
		AuthorLists:    cfg.AuthorLists,
		Taxonomy:       cfg.Taxonomy,
		ViralViewFloor: cfg.ViralViewFloor,
	}, logger)

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("prospector", serviceVersion)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	if redisClient != nil {
		healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redisClient))
	}

	fetchDefaults := fetch.Params{
		TimeWindow:    cfg.FetchWindow,
		MinFollowers:  cfg.FetchMinFollowers,
		MinEngagement: cfg.FetchMinEngagement,
		MaxCount:      cfg.FetchMaxCount,
	}

	// Recurring analyses
	sched := scheduler.New(runner, cfg.ScheduleProjects, fetchDefaults, cfg.ScheduleSpec, logger)
	if err := sched.Start(context.Background()); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	// HTTP surface
	router := server.SetupRouterWithService(logger, "prospector")
	router.GET("/health", healthChecker.Handler())

	handler := api.NewHandler(runner, st, api.FetchDefaults{
		TimeWindow:    cfg.FetchWindow,
		MinFollowers:  cfg.FetchMinFollowers,
		MinEngagement: cfg.FetchMinEngagement,
		MaxCount:      cfg.FetchMaxCount,
	}, logger)
	handler.RegisterRoutes(router)

	srvConfig := server.DefaultConfig("prospector", cfg.Port)
	srvConfig.WriteTimeout = 60 * time.Second
	if err := server.Start(srvConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
