package grpc

import (
	"shelf-vision/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer registers the product service and the standard health service. The
// health server is returned so callers can flip it to NOT_SERVING on shutdown.
// Server reflection is not offered: the product messages travel as JSON and
// have no registered proto descriptor to reflect.
func NewServer(products *service.ProductService, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(opts...)
	RegisterProductServiceServer(srv, NewProductGRPCHandler(products))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)
	return srv, healthServer
}
