package domain

import "errors"

// Authentication failures are terminal for the request; handlers map these
// sentinels to HTTP statuses in one place.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenMissing        = errors.New("token missing")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrIdentityUnparseable = errors.New("no identity in claims")
	ErrSessionRevoked      = errors.New("session ended or token revoked")
	ErrRegistryUnavailable = errors.New("session registry unavailable")
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)
