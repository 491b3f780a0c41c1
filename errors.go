package authservice

import "errors"

var (
	// ErrMalformedRequest marks a request body that is not the expected shape.
	// The Engine never returns it; transport adapters do.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrInvalidCredentials is a validation failure: the email or password
	// (or 2FA code / attempt id) does not meet policy.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIncorrectCredentials is returned for an unknown email, a wrong
	// password, or a 2FA challenge that does not match. Callers cannot tell
	// which.
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrUserAlreadyExists    = errors.New("user already exists")
	// ErrInvalidToken covers bad signatures, expiry and revoked tokens.
	ErrInvalidToken = errors.New("invalid auth token")
	ErrMissingToken = errors.New("missing auth token")
	// ErrLoginRateLimited is returned once the failed-attempt budget for an
	// email (or client IP) is spent.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrUnexpected wraps store, notifier and signing failures.
	ErrUnexpected     = errors.New("unexpected error")
	ErrEngineNotReady = errors.New("engine not initialized")
)
