package authgate

import "errors"

var (
	// ErrInvalidCredentials is returned by SignIn when the credential
	// collaborator rejects the email/password pair. The same error covers
	// unknown accounts so callers cannot enumerate principals.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is the collapsed failure for malformed tokens, bad
	// signatures and rotated-away or unknown refresh tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a presented token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrStoreUnavailable wraps Redis transport failures. The engine never
	// retries internally.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrSignInRateLimited is returned when the sign-in attempt budget for an
	// identifier or IP is exhausted.
	ErrSignInRateLimited = errors.New("sign-in rate limited")
	// ErrRefreshRateLimited is returned when the refresh attempt budget for a
	// principal is exhausted.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrEngineNotReady is returned when an Engine method is called on an
	// engine that was not constructed through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
