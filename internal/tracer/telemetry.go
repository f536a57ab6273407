package tracer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"shelf-vision/internal/config"
	"shelf-vision/internal/logger"
	"shelf-vision/internal/version"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	once         sync.Once
	shutdownFunc = func() {}
	initErr      error
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}()

// Instance sets up tracing and profiling once per process from config.Instance().
func Instance(globalCtx context.Context) (func(), error) {
	once.Do(func() {
		shutdownFunc, initErr = Setup(globalCtx, config.Instance())
	})
	return shutdownFunc, initErr
}

func newExporter(ctx context.Context, cfg *config.Config) (sdktrace.SpanExporter, error) {
	switch cfg.TraceExporter {
	case config.ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	case config.ExporterOTLP:
		if cfg.RemoteTraceRpcURI == "" {
			return nil, nil
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
		)
	default:
		return nil, nil
	}
}

// Setup installs the global tracer provider and propagators and starts the
// Pyroscope agent when REMOTE_PROFILING_HTTP_URI is set. Spans are still
// created without an exporter so trace ids reach the logs.
func Setup(ctx context.Context, cfg *config.Config) (func(), error) {
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Failed to create trace exporter", slog.String("error", err.Error()))
		return func() {}, fmt.Errorf("trace exporter: %w", err)
	}

	env := cfg.Env
	if env == "" {
		env = "development"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			semconv.ServiceVersionKey.String(version.Version),
			attribute.String("env", env),
		),
	)
	if err != nil {
		logger.Error(ctx, "Failed to create resource", slog.String("error", err.Error()))
		return func() {}, fmt.Errorf("trace resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info(ctx, "OpenTelemetry tracer initialized", slog.String("exporter", cfg.TraceExporter), slog.Bool("exporting", exp != nil))

	var profiler *pyroscope.Profiler
	if cfg.RemoteProfilingHttpURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.RemoteProfilingHttpURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"version": version.Version},
		})
		if err != nil {
			logger.Error(ctx, "Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			logger.Info(ctx, "Pyroscope started")
		}
	}

	return func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error(ctx, "Error shutting down tracer provider", slog.String("error", err.Error()))
		}
		if profiler != nil {
			_ = profiler.Stop()
		}
	}, nil
}
