package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the token verification service.
// Messages are well-known wrapper types so no generated stubs are needed.
const ServiceName = "notes.auth.v1.TokenVerifier"

const (
	verifyAccessMethod  = "/" + ServiceName + "/VerifyAccess"
	verifyRefreshMethod = "/" + ServiceName + "/VerifyRefresh"
)

type TokenVerifierServer interface {
	VerifyAccess(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	VerifyRefresh(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

func RegisterTokenVerifierServer(s grpc.ServiceRegistrar, srv TokenVerifierServer) {
	s.RegisterService(&TokenVerifierServiceDesc, srv)
}

var TokenVerifierServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenVerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "VerifyAccess", Handler: verifyAccessHandler},
		{MethodName: "VerifyRefresh", Handler: verifyRefreshHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "notes/auth/v1/verifier.proto",
}

func verifyAccessHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenVerifierServer).VerifyAccess(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: verifyAccessMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenVerifierServer).VerifyAccess(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func verifyRefreshHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenVerifierServer).VerifyRefresh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: verifyRefreshMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenVerifierServer).VerifyRefresh(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// TokenVerifierClient is used by other services to check tokens issued here.
type TokenVerifierClient struct {
	cc grpc.ClientConnInterface
}

func NewTokenVerifierClient(cc grpc.ClientConnInterface) *TokenVerifierClient {
	return &TokenVerifierClient{cc: cc}
}

func (c *TokenVerifierClient) VerifyAccess(ctx context.Context, token string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, verifyAccessMethod, wrapperspb.String(token), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *TokenVerifierClient) VerifyRefresh(ctx context.Context, token string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, verifyRefreshMethod, wrapperspb.String(token), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
