package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is declared by hand on top of protobuf well-known types, so
// there is no generated code to keep in sync.
const (
	ServiceName = "beetlemovies.MovieInterService"

	getMovieInfoMethod     = "/" + ServiceName + "/GetMovieInfo"
	checkMovieExistsMethod = "/" + ServiceName + "/CheckMovieExists"
	getLockStatusMethod    = "/" + ServiceName + "/GetLockStatus"
)

// MovieInterServiceServer is the server API for MovieInterService.
type MovieInterServiceServer interface {
	GetMovieInfo(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	CheckMovieExists(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	GetLockStatus(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
}

// RegisterMovieInterServiceServer registers srv on s.
func RegisterMovieInterServiceServer(s grpc.ServiceRegistrar, srv MovieInterServiceServer) {
	s.RegisterService(&MovieInterServiceDesc, srv)
}

var MovieInterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MovieInterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetMovieInfo",
			Handler: unaryHandler(getMovieInfoMethod, func(srv MovieInterServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (interface{}, error) {
				return srv.GetMovieInfo(ctx, in)
			}),
		},
		{
			MethodName: "CheckMovieExists",
			Handler: unaryHandler(checkMovieExistsMethod, func(srv MovieInterServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (interface{}, error) {
				return srv.CheckMovieExists(ctx, in)
			}),
		},
		{
			MethodName: "GetLockStatus",
			Handler: unaryHandler(getLockStatusMethod, func(srv MovieInterServiceServer, ctx context.Context, in *wrapperspb.Int64Value) (interface{}, error) {
				return srv.GetLockStatus(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "beetlemovies/movie_inter_service",
}

// unaryHandler builds a grpc.MethodHandler for a method taking a movie id.
func unaryHandler(fullMethod string, call func(MovieInterServiceServer, context.Context, *wrapperspb.Int64Value) (interface{}, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.Int64Value)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MovieInterServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(MovieInterServiceServer), ctx, req.(*wrapperspb.Int64Value))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MovieInterServiceClient is the client API for MovieInterService.
type MovieInterServiceClient interface {
	GetMovieInfo(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error)
	CheckMovieExists(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	GetLockStatus(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type movieInterServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMovieInterServiceClient(cc grpc.ClientConnInterface) MovieInterServiceClient {
	return &movieInterServiceClient{cc: cc}
}

func (c *movieInterServiceClient) GetMovieInfo(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getMovieInfoMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *movieInterServiceClient) CheckMovieExists(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, checkMovieExistsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *movieInterServiceClient) GetLockStatus(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getLockStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
