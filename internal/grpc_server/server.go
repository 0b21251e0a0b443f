// Package grpcserver exposes token introspection and user lookup to other
// services over gRPC. Messages are protobuf well-known types, so no generated
// code is needed.
package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"identity_service/internal/apperr"
	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "identity.IdentityService"

const (
	introspectMethod  = "/" + serviceName + "/Introspect"
	getUserInfoMethod = "/" + serviceName + "/GetUserInfo"
)

type Identity interface {
	Introspect(ctx context.Context, tok string) (bool, error)
	UserInfo(ctx context.Context, userID string) (models.User, error)
}

// IdentityServer is the handler type of the service descriptor.
type IdentityServer interface {
	Introspect(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	GetUserInfo(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Introspect", Handler: introspectHandler},
		{MethodName: "GetUserInfo", Handler: getUserInfoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "identity.proto",
}

type Server struct {
	log      *slog.Logger
	address  string
	identity Identity
}

func New(log *slog.Logger, address string, identity Identity) *Server {
	return &Server{
		log:      log.With(slog.String("module", "grpc_server")),
		address:  address,
		identity: identity,
	}
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	const op = "grpc_server.Run"

	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("starting gRPC server", slog.String("address", s.address))

	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	const op = "grpc_server.Serve"

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.logInterceptor))
	srv.RegisterService(&serviceDesc, s)

	go func() {
		<-ctx.Done()
		s.log.Info("stopping gRPC server")
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Server) Introspect(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	valid, err := s.identity.Introspect(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.Bool(valid), nil
}

func (s *Server) GetUserInfo(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}

	user, err := s.identity.UserInfo(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"user_id":    user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"bio":        user.Bio,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return out, nil
}

// toStatus hides infrastructure detail from callers.
func toStatus(err error) error {
	kind := apperr.From(err)

	switch {
	case kind == apperr.ErrInfrastructure:
		return status.Error(codes.Internal, kind.Key)
	case kind == apperr.ErrUserNotFound:
		return status.Error(codes.NotFound, kind.Key)
	default:
		return status.Error(codes.InvalidArgument, kind.Key)
	}
}

func (s *Server) logInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	log := s.log.With(
		slog.String("method", info.FullMethod),
		slog.String("code", status.Code(err).String()),
		slog.Duration("duration", time.Since(start)),
	)
	if status.Code(err) == codes.Internal {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Debug("request completed")
	}

	return resp, err
}

func introspectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(IdentityServer).Introspect(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: introspectMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServer).Introspect(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

func getUserInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(IdentityServer).GetUserInfo(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getUserInfoMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServer).GetUserInfo(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}
