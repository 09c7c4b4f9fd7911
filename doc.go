// Package authgate issues, validates, rotates and revokes paired session
// tokens: a short-lived JWT access token and a long-lived JWT refresh token,
// backed by a Redis TTL store that holds the single currently-active refresh
// token per principal and a blacklist of revoked ones.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. All cross-request state lives in Redis; the engine itself
// holds no mutable session state.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config]
// and the error taxonomy. Token encoding lives in the token subpackage,
// the Redis record layout in the session subpackage, and rate-limit counters
// under internal/. Credential storage and verification stay outside the
// module behind [CredentialVerifier].
//
// # What this package must NOT do
//
//   - Hash or store passwords (that is the caller's collaborator; the
//     password subpackage is offered as a building block only).
//   - Retry Redis operations. Infrastructure failures surface as
//     [ErrStoreUnavailable] and the caller decides.
//   - Strip transport prefixes such as "Bearer " from presented tokens.
package authgate
