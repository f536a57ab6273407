package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "shelfvision.v1.ProductService"

type Product struct {
	Id      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	InStock bool    `json:"in_stock"`
}

type ProductId struct {
	Id string `json:"id"`
}

type UpdateProductRequest struct {
	Id      string   `json:"id"`
	Name    *string  `json:"name,omitempty"`
	Price   *float64 `json:"price,omitempty"`
	InStock *bool    `json:"in_stock,omitempty"`
}

// ProductResponse names the host that answered so load-balanced clients can see the spread.
type ProductResponse struct {
	Resolver string   `json:"resolver"`
	Product  *Product `json:"product"`
}

type ProductListResponse struct {
	Resolver string     `json:"resolver"`
	Products []*Product `json:"products"`
}

type ProductServiceServer interface {
	Create(context.Context, *Product) (*ProductResponse, error)
	Get(context.Context, *ProductId) (*ProductResponse, error)
	List(context.Context, *emptypb.Empty) (*ProductListResponse, error)
	Update(context.Context, *UpdateProductRequest) (*ProductResponse, error)
	Delete(context.Context, *ProductId) (*emptypb.Empty, error)
}

func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&ProductServiceDesc, srv)
}

// unary builds a grpc.MethodDesc handler for one method.
func unary[Req any, Resp any](method string, call func(ProductServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProductServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProductServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ProductServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Create", ProductServiceServer.Create),
		unary("Get", ProductServiceServer.Get),
		unary("List", ProductServiceServer.List),
		unary("Update", ProductServiceServer.Update),
		unary("Delete", ProductServiceServer.Delete),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shelfvision/v1/product.proto",
}

// ProductServiceClient calls ProductService with the JSON codec.
type ProductServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProductServiceClient(cc grpc.ClientConnInterface) *ProductServiceClient {
	return &ProductServiceClient{cc: cc}
}

func (c *ProductServiceClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *ProductServiceClient) Create(ctx context.Context, in *Product, opts ...grpc.CallOption) (*ProductResponse, error) {
	out := new(ProductResponse)
	if err := c.invoke(ctx, "Create", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) Get(ctx context.Context, in *ProductId, opts ...grpc.CallOption) (*ProductResponse, error) {
	out := new(ProductResponse)
	if err := c.invoke(ctx, "Get", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) List(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ProductListResponse, error) {
	out := new(ProductListResponse)
	if err := c.invoke(ctx, "List", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) Update(ctx context.Context, in *UpdateProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	out := new(ProductResponse)
	if err := c.invoke(ctx, "Update", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductServiceClient) Delete(ctx context.Context, in *ProductId, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.invoke(ctx, "Delete", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
