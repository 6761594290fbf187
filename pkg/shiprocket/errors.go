package shiprocket

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid shiprocket config")

	// ErrUnauthorized is returned when the API rejects the auth token
	ErrUnauthorized = errors.New("unauthorized: invalid or expired token")

	// ErrNetworkError is returned on a network communication failure
	ErrNetworkError = errors.New("network error")

	// ErrNotServiceable is returned when no courier covers the destination
	ErrNotServiceable = errors.New("destination pincode not serviceable")

	// ErrAuthFailed is returned when the login call is rejected
	ErrAuthFailed = errors.New("shiprocket authentication failed")
)
