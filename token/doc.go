// Package token signs and verifies the JWT claims that make up authgate's
// access/refresh token pair.
//
// # Verification order
//
// Verify classifies failures in a fixed order: structure first
// ([ErrMalformed]), then signature ([ErrSignatureInvalid]), then expiry
// ([ErrExpired]). The signature is always checked before any embedded claim
// is trusted, including by PeekExpiration.
//
// # What this package must NOT do
//
//   - Talk to Redis or any other store. A token is judged on its own bytes.
//   - Distinguish access from refresh tokens structurally; the two differ
//     only by the TTL the Issuer signed them with.
package token
