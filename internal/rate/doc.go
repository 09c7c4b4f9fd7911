// Package rate provides the Redis-backed fixed-window counters behind
// authgate's sign-in and refresh throttles.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on the first hit. Key
// prefixes:
//   - ag:si:  — sign-in per-identifier
//   - ag:sip: — sign-in per-IP
//   - ag:rf:  — refresh per-principal
//
// # What this package must NOT do
//
//   - Implement domain policy (which flows throttle, and when counters
//     reset, is the engine's decision).
//   - Be imported outside the authgate module.
package rate
