package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dsadmin/apperror"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenConfig is the process-wide signing configuration.
type TokenConfig struct {
	Secret    []byte
	Algorithm string // HS256, HS384 or HS512
	Issuer    string
	TTL       time.Duration
}

// TokenService issues HMAC-signed JWTs whose subject is the identity handle,
// and validates them against signature, expiry, subject and the revocation set.
type TokenService struct {
	secret  []byte
	method  jwt.SigningMethod
	issuer  string
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

func NewTokenService(cfg TokenConfig, revoked RevocationStore) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", cfg.Algorithm)
	}
	if revoked == nil {
		return nil, errors.New("auth: revocation store is required")
	}
	return &TokenService{
		secret:  cfg.Secret,
		method:  method,
		issuer:  cfg.Issuer,
		ttl:     cfg.TTL,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// TTL is the configured access token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for handle that expires at now+ttl.
func (s *TokenService) Issue(handle string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   handle,
		Issuer:    s.issuer,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(), // two tokens for one user in the same second must differ
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate returns the subject handle of a valid token. Checks run in a fixed
// order: structure and signature, expiry, subject, revocation.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return "", ErrTokenExpired
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	revoked, err := s.revoked.IsRevoked(ctx, tokenString)
	if err != nil {
		return "", apperror.Internal("Could not check token revocation.", err)
	}
	if revoked {
		return "", ErrTokenRevoked
	}
	return claims.Subject, nil
}

// Revoke adds the token to the revocation set. It does not require the token to
// be valid; revoking twice is a no-op.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	retainUntil := s.now().Add(s.ttl)
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err == nil && claims.ExpiresAt != nil {
		retainUntil = claims.ExpiresAt.Time
	}
	if err := s.revoked.Add(ctx, tokenString, retainUntil); err != nil {
		return apperror.Internal("Could not revoke token.", err)
	}
	return nil
}

// parse verifies structure, algorithm and signature only; time-based claims
// are checked by Validate against the service clock.
func (s *TokenService) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrMalformedToken.Wrap(err)
	}
	if !token.Valid || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
