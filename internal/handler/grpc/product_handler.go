package grpc

import (
	"context"
	"errors"

	"shelf-vision/internal/logger"
	"shelf-vision/internal/model"
	"shelf-vision/internal/repository"
	"shelf-vision/internal/service"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type ProductGRPCHandler struct {
	Service *service.ProductService
}

var GrpcProductHandlerTracer = otel.Tracer("GrpcProductHandler")

func NewProductGRPCHandler(svc *service.ProductService) *ProductGRPCHandler {
	return &ProductGRPCHandler{
		Service: svc,
	}
}

func toProto(p *model.Product) *Product {
	return &Product{Id: p.ID, Name: p.Name, Price: p.Price, InStock: p.InStock}
}

// toStatus maps store and service sentinels to gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, repository.ErrDuplicateID):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrInvalidProduct):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (h *ProductGRPCHandler) List(ctx context.Context, _ *emptypb.Empty) (*ProductListResponse, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.List")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.List")

	products, err := h.Service.GetAll(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]*Product, 0, len(products))
	for i := range products {
		out = append(out, toProto(&products[i]))
	}
	return &ProductListResponse{
		Resolver: logger.Hostname(),
		Products: out,
	}, nil
}

func (h *ProductGRPCHandler) Get(ctx context.Context, req *ProductId) (*ProductResponse, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Get")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.Get")

	product, err := h.Service.GetByID(ctx, req.Id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ProductResponse{Resolver: logger.Hostname(), Product: toProto(product)}, nil
}

func (h *ProductGRPCHandler) Create(ctx context.Context, req *Product) (*ProductResponse, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Create")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.Create")

	created, err := h.Service.Create(ctx, model.Product{
		ID:      req.Id,
		Name:    req.Name,
		Price:   req.Price,
		InStock: req.InStock,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &ProductResponse{Resolver: logger.Hostname(), Product: toProto(created)}, nil
}

func (h *ProductGRPCHandler) Update(ctx context.Context, req *UpdateProductRequest) (*ProductResponse, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Update")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.Update")

	if req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	updated, err := h.Service.Update(ctx, req.Id, model.ProductPatch{
		Name:    req.Name,
		Price:   req.Price,
		InStock: req.InStock,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &ProductResponse{Resolver: logger.Hostname(), Product: toProto(updated)}, nil
}

func (h *ProductGRPCHandler) Delete(ctx context.Context, req *ProductId) (*emptypb.Empty, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.Delete")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.Delete")

	if err := h.Service.Delete(ctx, req.Id); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}
