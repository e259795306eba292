package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"dsadmin/apperror"
	"dsadmin/models"

	"gorm.io/gorm"
)

// UserFinder looks identities up by their email handle, with the role loaded.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Principal is an authenticated identity with its resolved permissions.
type Principal struct {
	User        *models.User
	Permissions PermissionSet
	Token       string
}

// IssuedToken is the result of a successful login.
type IssuedToken struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	Email     string
}

// Authenticator is the entry point transports use for login, per-request
// identity, authorization and logout.
type Authenticator struct {
	users    UserFinder
	tokens   *TokenService
	resolver *PermissionResolver
}

func NewAuthenticator(users UserFinder, tokens *TokenService, resolver *PermissionResolver) *Authenticator {
	return &Authenticator{users: users, tokens: tokens, resolver: resolver}
}

// Authenticate verifies email and password and issues an access token.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*IssuedToken, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.Validation("Email field is required")
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			burnVerify(password)
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Internal("Could not load user.", err)
	}
	if !VerifyPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	token, expiresAt, err := a.tokens.Issue(user.Email, a.tokens.TTL())
	if err != nil {
		return nil, apperror.Internal("Could not generate token.", err)
	}
	return &IssuedToken{Token: token, TokenType: "bearer", ExpiresAt: expiresAt, Email: user.Email}, nil
}

// RequireIdentity validates the token, loads the identity and resolves its
// permissions. Every protected operation goes through it first.
func (a *Authenticator) RequireIdentity(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	handle, err := a.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := a.users.FindByEmail(ctx, handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found.")
		}
		return nil, apperror.Internal("Could not load user.", err)
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	perms, err := a.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Principal{User: user, Permissions: perms, Token: token}, nil
}

// RequirePermission is the composable per-operation check.
func (a *Authenticator) RequirePermission(name string) Predicate {
	return RequirePermission(name)
}

// Logout revokes a currently valid token. Invalid, expired or already revoked
// tokens are rejected with the matching authentication error.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}
	if _, err := a.tokens.Validate(ctx, token); err != nil {
		return err
	}
	return a.tokens.Revoke(ctx, token)
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "bearer") {
		return "", apperror.Unauthorized("invalid_authorization_header", "Invalid authorization header format.")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
