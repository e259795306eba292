package grpcserver

import (
	"context"
	"strings"
	"time"

	"dsadmin/apperror"
	"dsadmin/auth"
	"dsadmin/interceptors"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
	Email     string `json:"email"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse reports a rejected token through Valid and Reason
// instead of an error status.
type ValidateTokenResponse struct {
	Valid       bool     `json:"valid"`
	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

type CheckPermissionRequest struct {
	Permission string `json:"permission"`
}

type CheckPermissionResponse struct {
	Granted bool `json:"granted"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	Message string `json:"message"`
}

// AuthServiceServer is the server API for dsadmin.auth.v1.AuthService.
type AuthServiceServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	ValidateToken(context.Context, *ValidateTokenRequest) (*ValidateTokenResponse, error)
	CheckPermission(context.Context, *CheckPermissionRequest) (*CheckPermissionResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
}

type authServiceServer struct {
	authenticator *auth.Authenticator
}

func NewAuthServiceServer(a *auth.Authenticator) AuthServiceServer {
	return &authServiceServer{authenticator: a}
}

func (s *authServiceServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	issued, err := s.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     issued.Token,
		TokenType: issued.TokenType,
		ExpiresAt: issued.ExpiresAt.UTC().Format(time.RFC3339),
		Email:     issued.Email,
	}, nil
}

func (s *authServiceServer) ValidateToken(ctx context.Context, req *ValidateTokenRequest) (*ValidateTokenResponse, error) {
	principal, err := s.authenticator.RequireIdentity(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindUnauthorized, apperror.KindNotFound:
			return &ValidateTokenResponse{Valid: false, Reason: apperror.From(err).Code}, nil
		}
		return nil, err
	}
	return &ValidateTokenResponse{
		Valid:       true,
		Email:       principal.User.Email,
		Permissions: principal.Permissions.Names(),
	}, nil
}

func (s *authServiceServer) CheckPermission(ctx context.Context, req *CheckPermissionRequest) (*CheckPermissionResponse, error) {
	if strings.TrimSpace(req.Permission) == "" {
		return nil, apperror.Validation("Permission field is required")
	}
	principal, ok := interceptors.PrincipalFromContext(ctx)
	if !ok {
		return nil, auth.ErrMissingToken
	}
	granted := s.authenticator.RequirePermission(req.Permission)(principal.Permissions) == nil
	return &CheckPermissionResponse{Granted: granted}, nil
}

// Logout only needs a valid token, so it also works for identities that
// have since been deleted.
func (s *authServiceServer) Logout(ctx context.Context, _ *LogoutRequest) (*LogoutResponse, error) {
	token, err := interceptors.TokenFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authenticator.Logout(ctx, token); err != nil {
		return nil, err
	}
	return &LogoutResponse{Message: "Logout successful"}, nil
}
