package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"shelf-vision/internal/config"
	"shelf-vision/internal/database"
	grpcHandler "shelf-vision/internal/handler/grpc"
	"shelf-vision/internal/logger"
	middleware_grpc "shelf-vision/internal/middleware/grpc"
	"shelf-vision/internal/repository"
	"shelf-vision/internal/service"
	"shelf-vision/internal/tracer"
	"shelf-vision/internal/version"
)

func main() {
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Instance()
	cfg := config.Instance()
	logger.SetRemote(cfg.RemoteLogHttpURI, cfg.AppName)

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
		slog.Bool("gracefulShutdown", cfg.IsProduction()),
	)

	shutdown, err := tracer.Instance(globalCtx)
	if err != nil {
		logger.Warn(globalCtx, "Tracing disabled", slog.String("error", err.Error()))
	}
	defer shutdown()

	var productRepo repository.ProductRepository = repository.NewMemoryProductRepository()
	if cfg.StoreBackend == config.StoreMongo {
		db, err := database.Connect(globalCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			logger.Error(globalCtx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close(context.WithoutCancel(globalCtx))
		productRepo = repository.NewMongoProductRepository(db.Database)
	}

	ids, err := service.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		logger.Error(globalCtx, "Invalid id strategy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wiring
	productService := service.NewProductService(productRepo, ids)
	grpcServer, healthServer := grpcHandler.NewServer(productService,
		grpc.UnaryInterceptor(middleware_grpc.UnaryTracingInterceptor()),
	)

	lis, err := net.Listen("tcp", ":"+cfg.AppPort)
	if err != nil {
		logger.Error(globalCtx, "failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info(globalCtx, "gRPC server running", slog.String("port", cfg.AppPort))

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error(globalCtx, "failed to serve", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-globalCtx.Done()

	if !cfg.IsProduction() {
		logger.Info(globalCtx, "Received shutdown signal, exiting immediately")
		grpcServer.Stop()
		return
	}
	logger.Info(globalCtx, "Shutting down gRPC server")
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	logger.Info(globalCtx, "gRPC server exited cleanly")
}
