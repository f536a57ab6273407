package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	"shelf-vision/internal/config"
	grpcHandler "shelf-vision/internal/handler/grpc"
	"shelf-vision/internal/logger"
	middleware_grpc "shelf-vision/internal/middleware/grpc"
	"shelf-vision/internal/tracer"
	"shelf-vision/internal/version"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
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
	)

	if cfg.ExternalGRPC == "" {
		logger.Error(globalCtx, "EXTERNAL_GRPC environment variable is not set")
		os.Exit(1)
	}

	shutdown, err := tracer.Instance(globalCtx)
	if err != nil {
		logger.Warn(globalCtx, "Tracing disabled", slog.String("error", err.Error()))
	}
	defer shutdown()
	clientTracer := otel.Tracer("GrpcClient")

	conn, err := grpc.NewClient(
		cfg.ExternalGRPC,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultServiceConfig(`{"loadBalancingPolicy":"round_robin"}`),
		grpc.WithUnaryInterceptor(middleware_grpc.UnaryClientTracingInterceptor()),
	)
	if err != nil {
		logger.Error(globalCtx, "Failed to connect to gRPC server",
			slog.String("error", err.Error()),
			slog.String("target", cfg.ExternalGRPC),
		)
		os.Exit(1)
	}
	defer func() {
		logger.Info(globalCtx, "Closing gRPC connection")
		_ = conn.Close()
	}()

	client := grpcHandler.NewProductServiceClient(conn)
	maxSleep := max(int(cfg.ClientMaxSleepMs), 1)

	logger.Info(globalCtx, "gRPC client started",
		slog.String("target", cfg.ExternalGRPC),
		slog.Int("max_client_delay", maxSleep),
	)

	for {
		ctx := logger.WithRequestID(globalCtx, uuid.NewString())
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		ctx, span := clientTracer.Start(ctx, "GrpcClient.List")
		var trailer metadata.MD

		resp, err := client.List(ctx, &emptypb.Empty{}, grpc.Trailer(&trailer))
		span.End()
		cancel()

		traceID := "empty"
		if ids := trailer.Get("x-trace-id"); len(ids) > 0 {
			traceID = ids[0]
		}

		if err != nil {
			logger.Error(ctx, "Error calling List",
				slog.String("error", err.Error()),
				slog.String("trace_id", traceID),
			)
		} else {
			logger.Info(ctx, "Received products",
				slog.String("resolver", resp.Resolver),
				slog.String("trace_id", traceID),
				slog.Int("count", len(resp.Products)),
			)
		}

		delay := time.Duration(rand.Intn(maxSleep)+1) * time.Millisecond
		select {
		case <-globalCtx.Done():
			logger.Info(globalCtx, "Shutting down gRPC client")
			return
		case <-time.After(delay):
		}
	}
}
