package interceptors

import (
	"context"

	"dsadmin/apperror"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "dsadmin"

// GRPCCode maps an application error kind onto a gRPC status code.
func GRPCCode(kind apperror.Kind) codes.Code {
	switch kind {
	case apperror.KindUnauthorized:
		return codes.Unauthenticated
	case apperror.KindPermissionDenied:
		return codes.PermissionDenied
	case apperror.KindNotFound:
		return codes.NotFound
	case apperror.KindValidation, apperror.KindBadRequest:
		return codes.InvalidArgument
	case apperror.KindConflict:
		return codes.AlreadyExists
	case apperror.KindRateLimited:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

// ToStatus converts err into a gRPC status error. Errors that already carry
// a status are returned unchanged. The application error code travels as
// the ErrorInfo reason.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	appErr := apperror.From(err)

	st := status.New(GRPCCode(appErr.Kind), appErr.Message)
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: appErr.Code, Domain: errorDomain})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ErrorInterceptor translates handler errors into gRPC statuses and logs
// the causes of internal failures, which are never sent to the client.
func ErrorInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		switch apperror.KindOf(err) {
		case apperror.KindInternal, apperror.KindIntegrity:
			if _, isStatus := status.FromError(err); !isStatus {
				logger.Error("grpc handler failed", zap.String("method", info.FullMethod), zap.Error(err))
			}
		}
		return nil, ToStatus(err)
	}
}
