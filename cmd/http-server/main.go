package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelf-vision/internal/cache"
	"shelf-vision/internal/config"
	"shelf-vision/internal/database"
	handler "shelf-vision/internal/handler/http"
	"shelf-vision/internal/inference"
	"shelf-vision/internal/logger"
	"shelf-vision/internal/matcher"
	"shelf-vision/internal/overlay"
	"shelf-vision/internal/repository"
	"shelf-vision/internal/service"
	"shelf-vision/internal/tracer"
	"shelf-vision/internal/version"
)

func main() {
	globalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Instance()
	cfg := config.Instance()
	logger.SetRemote(cfg.RemoteLogHttpURI, cfg.AppName)

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
		slog.Bool("gracefulShutdown", cfg.IsProduction()),
	)

	if cfg.InferenceHTTP == "" {
		logger.Error(globalCtx, "INFERENCE_HTTP environment variable is not set")
		os.Exit(1)
	}

	shutdown, err := tracer.Instance(globalCtx)
	if err != nil {
		logger.Warn(globalCtx, "Tracing disabled", slog.String("error", err.Error()))
	}
	defer shutdown()

	var checks []service.HealthCheck

	// Product store
	var productRepo repository.ProductRepository
	switch cfg.StoreBackend {
	case config.StoreMongo:
		db, err := database.Connect(globalCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			logger.Error(globalCtx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close(context.WithoutCancel(globalCtx))
		productRepo = repository.NewMongoProductRepository(db.Database)
		checks = append(checks, service.HealthCheck{Name: "mongodb", Ping: db.Ping})
	default:
		productRepo = repository.NewMemoryProductRepository()
	}

	ids, err := service.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		logger.Error(globalCtx, "Invalid id strategy", slog.String("error", err.Error()))
		os.Exit(1)
	}
	labelMatcher, err := matcher.New(cfg.LabelMatcher)
	if err != nil {
		logger.Error(globalCtx, "Invalid label matcher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Detection
	detector := inference.NewClient(cfg.InferenceHTTP, time.Duration(cfg.InferenceTimeoutMs)*time.Millisecond)
	checks = append(checks, service.HealthCheck{Name: "inference", Ping: detector.Ping})

	var detectionCache cache.DetectionCache
	if cfg.RedisAddr != "" {
		detectionCache = cache.NewRedisDetectionCache(cfg.RedisAddr, cfg.AppName)
		defer detectionCache.Close()
		checks = append(checks, service.HealthCheck{Name: "redis", Ping: detectionCache.Ping})
	}

	// Wiring
	productService := service.NewProductService(productRepo, ids)
	detectionService := service.NewDetectionService(productRepo, detector, overlay.NewAnnotator(), labelMatcher, detectionCache, service.DetectionOptions{
		MinConfidence:     cfg.InferenceMinConfidence,
		MaxDimension:      int(cfg.DetectionMaxDimension),
		MaxPixels:         cfg.DetectionMaxPixels,
		AnnotateUnmatched: cfg.AnnotateUnmatched,
		CacheTTL:          time.Duration(cfg.DetectionCacheTTLSec) * time.Second,
	})
	healthService := service.NewHealthService(checks...)

	router := handler.NewRouter(
		handler.NewProductHandler(productService),
		handler.NewUploadHandler(detectionService, cfg.UploadMaxBytes),
		handler.NewHealthHandler(healthService),
	)

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.InferenceTimeoutMs)*time.Millisecond + 30*time.Second,
	}

	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(globalCtx, "Server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-globalCtx.Done()

	if !cfg.IsProduction() {
		logger.Info(globalCtx, "Received shutdown signal, exiting immediately")
		return
	}
	logger.Info(globalCtx, "Shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error(globalCtx, "Graceful shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info(globalCtx, "HTTP server exited cleanly")
}
