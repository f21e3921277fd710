package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"log/slog"

	"github.com/polisight/polisight/internal/activity"
	"github.com/polisight/polisight/internal/analysis"
	"github.com/polisight/polisight/internal/api"
	"github.com/polisight/polisight/internal/auth"
	"github.com/polisight/polisight/internal/collection"
	"github.com/polisight/polisight/internal/config"
	"github.com/polisight/polisight/internal/content"
	"github.com/polisight/polisight/internal/database"
	"github.com/polisight/polisight/internal/logging"
	"github.com/polisight/polisight/internal/metrics"
	"github.com/polisight/polisight/internal/reports"
	"github.com/polisight/polisight/internal/scheduler"
	"github.com/polisight/polisight/internal/server"
	"github.com/polisight/polisight/internal/tasks"
	"github.com/polisight/polisight/internal/vector"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting polisight")

	ctx := context.Background()

	logger.Info("connecting to postgres")
	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("postgres connected")

	// Run pending migrations (non-fatal to allow app to start even if migrations fail)
	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	userRepo := database.NewUserRepository(db)
	reportRepo := database.NewReportRepository(db)

	authConfig := auth.LoadConfigFromEnv()
	if authConfig.AdminEmail != "" && authConfig.AdminPassword != "" {
		hash, err := auth.HashPassword(authConfig.AdminPassword)
		if err != nil {
			logger.Error("failed to hash admin password", "error", err)
			os.Exit(1)
		}
		if err := userRepo.EnsureAdmin(ctx, authConfig.AdminEmail, hash); err != nil {
			logger.Warn("failed to ensure admin user", "error", err)
		}
	}

	logger.Info("connecting to mongo", "database", cfg.Mongo.Database)
	mongoDB, err := content.Connect(ctx, cfg.Mongo)
	if err != nil {
		logger.Error("failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	entityStore := content.NewEntityStore(mongoDB)
	postStore := content.NewPostStore(mongoDB)
	analysisStore := content.NewAnalysisStore(mongoDB)

	// Redis is optional: without it activity recording and caching become
	// no-ops and the rest of the service runs unchanged.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, activity feed disabled", "error", err)
			redisClient = nil
		} else {
			logger.Info("redis connected", "addr", cfg.Redis.Addr)
		}
	}
	activitySvc := activity.NewService(redisClient, logger)
	cache := activity.NewCache(redisClient)

	var analyzer analysis.Analyzer
	if cfg.LLM.AnthropicAPIKey != "" {
		analyzer = analysis.NewClaudeAnalyzer(cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicModel, logger)
		logger.Info("using claude analyzer", "model", cfg.LLM.AnthropicModel)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, using keyword analyzer")
		analyzer = analysis.NewKeywordAnalyzer()
	}

	var vectorSvc *vector.Service
	if cfg.LLM.OpenAIAPIKey != "" {
		embedder := vector.NewOpenAIEmbedder(cfg.LLM.OpenAIAPIKey, cfg.LLM.EmbeddingModel)
		vectorSvc = vector.NewService(embedder, postStore, logger)
		logger.Info("semantic search enabled", "model", cfg.LLM.EmbeddingModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, semantic search disabled")
	}

	apifyClient := collection.NewClient(cfg.Apify.Token)
	collectionSvc := collection.NewService(apifyClient, entityStore, postStore, logger)
	analysisSvc := analysis.NewService(analyzer, postStore, analysisStore, entityStore, logger)
	reportSvc := reports.NewService(postStore, analysisStore, entityStore, reportRepo, logger)

	ops := tasks.NewOperationSet()
	ops.Register(tasks.KindCollectData, collectionSvc.CollectOperation)
	ops.Register(tasks.KindAnalyzeContent, analysisSvc.AnalyzeContentOperation)
	ops.Register(tasks.KindAnalyzeRelationships, analysisSvc.AnalyzeRelationshipsOperation)
	ops.Register(tasks.KindGenerateReport, reportSvc.GenerateOperation)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	registry := tasks.NewRegistry(ops, logger, collector)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	// Prefer brokered dispatch when AMQP is configured; otherwise run tasks
	// on in-process goroutines.
	var dispatcher tasks.Dispatcher
	if cfg.Broker.URL != "" {
		conn, err := amqp.Dial(cfg.Broker.URL)
		if err != nil {
			logger.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		pubChannel, err := conn.Channel()
		if err != nil {
			logger.Error("failed to open broker channel", "error", err)
			os.Exit(1)
		}
		amqpDispatcher, err := tasks.NewAMQPDispatcher(pubChannel, logger)
		if err != nil {
			logger.Error("failed to init dispatcher", "error", err)
			os.Exit(1)
		}
		dispatcher = amqpDispatcher

		consumeChannel, err := conn.Channel()
		if err != nil {
			logger.Error("failed to open worker channel", "error", err)
			os.Exit(1)
		}
		worker := tasks.NewAMQPWorker(consumeChannel, registry, logger)
		go func() {
			if err := worker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("task worker stopped", "error", err)
			}
		}()
		logger.Info("using amqp dispatcher")
	} else {
		dispatcher = tasks.NewGoDispatcher(registry)
		logger.Info("using in-process dispatcher")
	}

	collectionScheduler := scheduler.NewCollectionScheduler(entityStore, registry, dispatcher, logger)
	go collectionScheduler.Start(workerCtx)
	defer collectionScheduler.Stop()

	if cfg.Retention.MaxAge > 0 {
		retentionScheduler := scheduler.NewRetentionScheduler(registry, cfg.Retention.MaxAge, cfg.Retention.SweepInterval, logger)
		go retentionScheduler.Start(workerCtx)
		defer retentionScheduler.Stop()
	}

	if vectorSvc != nil {
		embeddingScheduler := scheduler.NewEmbeddingScheduler(vectorSvc, logger)
		go embeddingScheduler.Start(workerCtx)
		defer embeddingScheduler.Stop()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service":    "polisight",
			"task_kinds": ops.Kinds(),
		})
	})

	mux.Handle("/metrics", collector.Handler())

	api.SetupRoutes(mux, api.Deps{
		Registry:   registry,
		Dispatcher: dispatcher,
		Entities:   entityStore,
		Posts:      postStore,
		Analyses:   analysisStore,
		Reports:    reportRepo,
		Users:      userRepo,
		Vectors:    vectorSvc,
		Activity:   activitySvc,
		Cache:      cache,
		AuthConfig: authConfig,
		Logger:     logger,
	})

	handler := collector.InstrumentHandler(mux)

	srv := server.New(cfg.Server, logger, handler)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("polisight started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
