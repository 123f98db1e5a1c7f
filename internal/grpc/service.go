package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the catalog service.
const ServiceName = "bangumibridge.v1.CatalogService"

// Method names of the catalog service.
const (
	MethodGetCalendar      = "GetCalendar"
	MethodGetSubject       = "GetSubject"
	MethodBatchGetSubjects = "BatchGetSubjects"
	MethodListEpisodes     = "ListEpisodes"
	MethodSearchSubjects   = "SearchSubjects"
)

// CatalogServer is the read-only view over the Bangumi catalog.
// Requests and responses are google.protobuf.Struct documents mirroring the JSON models.
type CatalogServer interface {
	GetCalendar(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSubject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	BatchGetSubjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListEpisodes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SearchSubjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type catalogCall func(srv CatalogServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call catalogCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGetCalendar, Handler: unaryHandler(MethodGetCalendar, CatalogServer.GetCalendar)},
		{MethodName: MethodGetSubject, Handler: unaryHandler(MethodGetSubject, CatalogServer.GetSubject)},
		{MethodName: MethodBatchGetSubjects, Handler: unaryHandler(MethodBatchGetSubjects, CatalogServer.BatchGetSubjects)},
		{MethodName: MethodListEpisodes, Handler: unaryHandler(MethodListEpisodes, CatalogServer.ListEpisodes)},
		{MethodName: MethodSearchSubjects, Handler: unaryHandler(MethodSearchSubjects, CatalogServer.SearchSubjects)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bangumibridge/v1/catalog.proto",
}

// RegisterCatalogServer registers srv on s.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

// FullMethod returns the wire path of a catalog method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CatalogClient calls the catalog service.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

// NewCatalogClient creates a client over cc.
func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

// Call invokes method with req.
func (c *CatalogClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
