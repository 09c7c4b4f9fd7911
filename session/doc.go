// Package session is the Redis client for authgate's two record kinds: the
// per-principal "current refresh token" record and the revocation blacklist.
//
// # Record layout
//
// Session record: key = principal email exactly, value = the one refresh
// token currently considered live, TTL = the refresh-token lifetime.
// Blacklist record: key = prefix + email ("Blacklist_" by default), value =
// the revoked refresh token, TTL = that token's remaining validity at the
// moment of revocation.
//
// # Atomicity
//
// Redis offers no compare-and-set command for plain strings, so Rotate and
// Revoke run as server-side Lua scripts: concurrent refreshes presenting the
// same token resolve to exactly one winner, and sign-out's delete+insert
// cannot be observed half-done.
//
// # What this package must NOT do
//
//   - Parse or validate token contents. Values are opaque strings here.
//   - Retry on transport failure; errors wrap [ErrRedisUnavailable] and
//     propagate.
package session
