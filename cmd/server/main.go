package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogsync "github.com/catalogbridge/backend/internal/application/sync"
	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/integration"
	"github.com/catalogbridge/backend/internal/infrastructure/cache"
	"github.com/catalogbridge/backend/internal/infrastructure/config"
	"github.com/catalogbridge/backend/internal/infrastructure/erpapi"
	"github.com/catalogbridge/backend/internal/infrastructure/logger"
	"github.com/catalogbridge/backend/internal/infrastructure/media"
	"github.com/catalogbridge/backend/internal/infrastructure/persistence"
	"github.com/catalogbridge/backend/internal/infrastructure/scheduler"
	"github.com/catalogbridge/backend/internal/interfaces/http/handler"
	"github.com/catalogbridge/backend/internal/interfaces/http/middleware"
	"github.com/catalogbridge/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

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

	log.Info("Starting catalog bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with GORM logging through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected and migrated")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	termRepo := persistence.NewGormTermRepository(db.DB)
	metaRepo := persistence.NewGormProductMetaRepository(db.DB)

	// Product cache: Redis when enabled, in-memory otherwise
	cacheFactory := cache.NewProductCacheFactory(cfg.Redis, cache.WithLogger(log))
	productCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create product cache", zap.Error(err))
	}

	// Upstream row source
	var rowSource integration.RowSource
	if cfg.Source.BaseURL != "" {
		rowSource, err = erpapi.NewClient(
			erpapi.NewClientConfig(cfg.Source.BaseURL, cfg.Source.AppID, cfg.Source.Token),
			log.Named("erpapi"),
		)
		if err != nil {
			log.Fatal("Failed to create row source client", zap.Error(err))
		}
	} else {
		rowSource = erpapi.Unconfigured()
		log.Warn("No upstream source configured, import runs will fail until one is set")
	}

	// Media relinker: S3 when configured, noop otherwise
	var relinker catalog.MediaRelinker
	if cfg.Media.Bucket != "" {
		relinker, err = media.NewS3GalleryRelinker(&cfg.Media, metaRepo, media.WithLogger(log.Named("media")))
		if err != nil {
			log.Fatal("Failed to create media relinker", zap.Error(err))
		}
	} else {
		relinker = media.NewNoopRelinker(log.Named("media"))
	}

	// Import engine
	engine := catalogsync.NewEngine(
		rowSource,
		productRepo,
		termRepo,
		metaRepo,
		productCache,
		relinker,
		log.Named("sync"),
		catalogsync.Config{
			Query:          cfg.Source.ItemQuery,
			QueryParams:    cfg.Source.QueryParams,
			PageSize:       cfg.Source.PageSize,
			ForceRefresh:   cfg.Sync.ForceRefresh,
			StaleBatchSize: cfg.Sync.StaleBatchSize,
		},
	)

	// HTTP server
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	ginEngine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log.Named("http")),
		middleware.Recovery(log.Named("http")),
	)

	r := router.NewRouter(ginEngine)
	r.Register(handler.NewSyncHandler(engine, cfg.Sync.BatchSize, log.Named("sync"))).
		Register(handler.NewSystemHandler(db, version))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      ginEngine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Background scheduler for periodic full imports
	var importScheduler *scheduler.ImportScheduler
	if cfg.Sync.CronEnabled {
		importScheduler = scheduler.NewImportScheduler(scheduler.ImportSchedulerConfig{
			Interval:  cfg.Sync.CronInterval,
			BatchSize: cfg.Sync.BatchSize,
		}, engine, log.Named("scheduler"))
		if err := importScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start import scheduler", zap.Error(err))
		}
	}

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

	if importScheduler != nil {
		if err := importScheduler.Stop(ctx); err != nil {
			log.Warn("Import scheduler shutdown incomplete", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
