package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// RegistryServiceName is the gRPC full service name for spec.md section 6's
// separate registry IPC surface.
const RegistryServiceName = "gridbox.provider.RegistryService"

// RegistryServiceServer is the server-side contract for the registry
// lookup service: "Registry is a lookup service only; it does not route
// calls" (spec.md section 6).
type RegistryServiceServer interface {
	List(context.Context, *RegistryListRequest) (*RegistryListResponse, error)
}

// UnimplementedRegistryServiceServer embeds into a concrete server for
// forward compatibility, mirroring protoc-gen-go's generated pattern.
type UnimplementedRegistryServiceServer struct{}

func (UnimplementedRegistryServiceServer) List(context.Context, *RegistryListRequest) (*RegistryListResponse, error) {
	return nil, grpcUnimplemented("rpcapi.RegistryService.List")
}

func registryListHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(RegistryListRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegistryServiceServer).List(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RegistryServiceName + "/List"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RegistryServiceServer).List(ctx, req.(*RegistryListRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// RegistryServiceDesc is the hand-written grpc.ServiceDesc for
// RegistryService (see ProviderServiceDesc's doc comment for why this is
// hand-written rather than protoc-generated).
var RegistryServiceDesc = grpc.ServiceDesc{
	ServiceName: RegistryServiceName,
	HandlerType: (*RegistryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "List", Handler: registryListHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi/registry_service.proto",
}

// RegisterRegistryServiceServer registers srv with s.
func RegisterRegistryServiceServer(s grpc.ServiceRegistrar, srv RegistryServiceServer) {
	s.RegisterService(&RegistryServiceDesc, srv)
}

// RegistryServiceClient is the client-side stub for RegistryService.
type RegistryServiceClient interface {
	List(ctx context.Context, in *RegistryListRequest, opts ...grpc.CallOption) (*RegistryListResponse, error)
}

type registryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRegistryServiceClient builds a RegistryServiceClient over cc.
func NewRegistryServiceClient(cc grpc.ClientConnInterface) RegistryServiceClient {
	return &registryServiceClient{cc}
}

func (c *registryServiceClient) List(ctx context.Context, in *RegistryListRequest, opts ...grpc.CallOption) (*RegistryListResponse, error) {
	out := new(RegistryListResponse)
	if err := c.cc.Invoke(ctx, "/"+RegistryServiceName+"/List", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
