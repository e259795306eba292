package auth

import "dsadmin/apperror"

// Authentication failures. All map to 401 at the boundary.
var (
	ErrMissingToken       = apperror.Unauthorized("missing_token", "Token is missing.")
	ErrMalformedToken     = apperror.Unauthorized("malformed_token", "Could not validate token.")
	ErrTokenExpired       = apperror.Unauthorized("token_expired", "Token has expired.")
	ErrMissingSubject     = apperror.Unauthorized("missing_subject", "Token payload is invalid: missing 'sub'.")
	ErrTokenRevoked       = apperror.Unauthorized("token_revoked", "Token has been revoked.")
	ErrInvalidCredentials = apperror.Unauthorized("invalid_credentials", "Incorrect email or password.")
	ErrAccountDisabled    = apperror.Unauthorized("account_disabled", "Account is disabled.")
)
