package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	syncapp "github.com/catalogsync/backend/internal/application/sync"
	"github.com/catalogsync/backend/internal/infrastructure/config"
	"github.com/catalogsync/backend/internal/infrastructure/feed"
	"github.com/catalogsync/backend/internal/infrastructure/logger"
	"github.com/catalogsync/backend/internal/infrastructure/persistence"
	"github.com/catalogsync/backend/internal/infrastructure/retry"
	"github.com/catalogsync/backend/internal/infrastructure/status"
	"github.com/catalogsync/backend/internal/infrastructure/storage"
	"github.com/catalogsync/backend/internal/interfaces/http/handler"
	"github.com/catalogsync/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting Catalog Sync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate catalog schema", zap.Error(err))
	}

	// Initialize repositories
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormParentProductRepository(db.DB)
	variantRepo := persistence.NewGormProductVariantRepository(db.DB)
	mediaRepo := persistence.NewGormMediaAssetRepository(db.DB)

	// Shared retry policy for all outbound work
	retryPolicy := retry.NewPolicy(cfg.Retry.InitialDelay, cfg.Retry.MaxRetries, log)

	// Supplier feed transport
	feedClient := feed.NewClient(
		cfg.Feed.ManifestURL,
		cfg.Feed.RequestTimeout,
		retryPolicy,
		feed.WithRateLimit(cfg.Feed.RequestsPerSecond),
		feed.WithLogger(log),
	)

	// Object storage for image backups
	objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.Warn("Could not ensure storage bucket; image backups may fail", zap.Error(err))
		}
		cancel()
	}

	// Run status tracker, Redis-backed when enabled so status survives
	// restarts and is shared across instances
	var tracker status.Tracker = status.NewMemoryTracker()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, falling back to in-memory status tracking", zap.Error(err))
		} else {
			tracker = status.NewRedisTracker(redisClient, cfg.Redis.StatusTTL)
			log.Info("Redis status tracking enabled", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	// Sync engine
	registry := syncapp.NewProfileRegistry(supplierRepo)
	upserter := syncapp.NewUpserter(supplierRepo, categoryRepo, productRepo, variantRepo, retryPolicy, log)
	importer := syncapp.NewCategoryImporter(upserter, categoryRepo, cfg.Feed.Languages, log)
	ingestor := syncapp.NewImageIngestor(feedClient, objectStorage, mediaRepo, retryPolicy, log)
	orchestrator := syncapp.NewOrchestrator(
		feedClient,
		upserter,
		importer,
		ingestor,
		productRepo,
		registry,
		tracker,
		cfg.Feed.Languages,
		cfg.Sync.Workers,
		log,
	)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.RequestIDMiddleware())
	engine.Use(logger.GinMiddleware(log))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	r := router.NewRouter(engine)
	r.Register(handler.NewSyncHandler(orchestrator)).
		Register(handler.NewSystemHandler(db))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
