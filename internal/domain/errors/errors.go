// Package errors defines the sentinel errors shared across service,
// repository and handler layers. Handlers map them to HTTP status codes
// with errors.Is; repositories translate driver errors into them.
package errors

import "errors"

var (
	// Generic.
	ErrInternal       = errors.New("internal server error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrForbidden      = errors.New("access denied")
	ErrUnauthorized   = errors.New("unauthorized")

	// Authentication. ErrInvalidCredentials deliberately covers both the
	// unknown-user and wrong-password cases so callers cannot enumerate
	// accounts.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRateLimitExceeded   = errors.New("rate limit exceeded")

	// Users.
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailExists          = errors.New("email is already in use")
	ErrUsernameExists       = errors.New("username is already in use")
	ErrUserBlocked          = errors.New("user account is blocked")
	ErrEmailNotVerified     = errors.New("email is not verified")
	ErrEmailAlreadyVerified = errors.New("email is already verified")
)

// IsUnauthorized reports whether err should surface as a 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrInvalidRefreshToken)
}

// IsConflict reports whether err should surface as a 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrUsernameExists) ||
		errors.Is(err, ErrEmailAlreadyVerified)
}
