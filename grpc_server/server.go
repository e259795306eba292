package grpcserver

import (
	"dsadmin/auth"
	"dsadmin/interceptors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PublicMethods skip the identity check. ValidateToken and Logout read the
// token themselves.
var PublicMethods = []string{
	AuthService_Login_FullMethodName,
	AuthService_ValidateToken_FullMethodName,
	AuthService_Logout_FullMethodName,
	healthpb.Health_Check_FullMethodName,
}

// NewServer builds the gRPC server with the AuthService and the standard
// health service registered. The returned health server starts SERVING.
func NewServer(a *auth.Authenticator, logger *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		interceptors.RecoveryInterceptor(logger),
		interceptors.ZapLoggingInterceptor(logger),
		interceptors.ErrorInterceptor(logger),
		interceptors.AuthInterceptor(a, PublicMethods...),
	))
	s := grpc.NewServer(opts...)

	RegisterAuthServiceServer(s, NewAuthServiceServer(a))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(AuthServiceName, healthpb.HealthCheckResponse_SERVING)
	return s, hs
}
