package identity

import "errors"

// Sentinel errors for the authentication pipeline. Callers map these onto
// HTTP rejections; everything else is an upstream failure and fails closed.
var (
	// ErrTokenInvalid means the token is malformed or its signature does
	// not verify
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired means the token was valid but its lifetime has passed
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenRevoked means the token was explicitly revoked upstream
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrUserNotFound means the token verified but the directory has no
	// record for its subject
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists means registration targeted a subject that already
	// has a directory record
	ErrUserExists = errors.New("user already exists")

	// ErrAccountInactive means the user exists but the account is disabled
	ErrAccountInactive = errors.New("account is inactive")

	// ErrUpstream wraps provider or directory failures (timeouts, 5xx).
	// Authentication fails closed on it.
	ErrUpstream = errors.New("identity upstream unavailable")
)

// IsTokenError reports whether the error is one of the three token
// verification failures, all of which present the same to the caller
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked)
}
