package middleware_grpc

import (
	"context"
	"time"

	"shelf-vision/internal/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var tracer = otel.Tracer("GrpcMiddleware")

const (
	requestIDKey = "x-request-id"
	traceIDKey   = "x-trace-id"
)

// UnaryTracingInterceptor continues the caller's trace from incoming metadata,
// logs request and response and returns the trace id in the x-trace-id trailer.
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		md = md.Copy()
		ctx = otel.GetTextMapPropagator().Extract(ctx, MetadataCarrier(md))

		ctx, span := tracer.Start(ctx, info.FullMethod)
		defer span.End()

		requestID := MetadataCarrier(md).Get(requestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, requestID)

		if p, ok := peer.FromContext(ctx); ok {
			span.SetAttributes(attribute.String("net.peer.addr", p.Addr.String()))
		}
		logger.Info(ctx, "GRPC", logger.LogGRPCRequest(ctx, info.FullMethod, md, req, "incoming::request")...)

		_ = grpc.SetTrailer(ctx, metadata.Pairs(traceIDKey, span.SpanContext().TraceID().String()))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}
		span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))

		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(ctx, info.FullMethod, nil, code, resp, time.Since(start), "incoming::response")...)
		return resp, err
	}
}

// UnaryClientTracingInterceptor starts a client span and injects its context
// plus the request id into outgoing metadata.
func UnaryClientTracingInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, span := tracer.Start(ctx, method)
		defer span.End()

		md, ok := metadata.FromOutgoingContext(ctx)
		if ok {
			md = md.Copy()
		} else {
			md = metadata.MD{}
		}
		otel.GetTextMapPropagator().Inject(ctx, MetadataCarrier(md))
		if id := logger.RequestIDFromContext(ctx); id != "" {
			md.Set(requestIDKey, id)
		}
		ctx = metadata.NewOutgoingContext(ctx, md)

		logger.Info(ctx, "GRPC", logger.LogGRPCRequest(ctx, method, md, req, "outgoing::request")...)

		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		code := status.Code(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}
		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(ctx, method, nil, code, reply, time.Since(start), "outgoing::response")...)
		return err
	}
}
