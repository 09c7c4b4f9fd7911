// Package password provides an argon2id hasher with PHC-format encoding.
//
// authgate's engine never hashes or stores passwords; credential
// verification is the caller's collaborator. This package exists so that
// [github.com/lpawlik/authgate.CredentialVerifier] implementations have a
// vetted building block instead of rolling their own KDF parameters.
package password
