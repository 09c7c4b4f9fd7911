package authgate

import "context"

// TokenPair is returned by SignIn and Refresh: the access token goes into
// the Authorization carrier, the refresh token into the RefreshToken
// carrier. Both are opaque bearer strings to the transport layer.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CredentialVerifier is the external credential collaborator. VerifyCredentials
// performs one combined check (account lookup and password comparison) and
// returns nil on success. Any failure, including an unknown account, is
// reported to callers as [ErrInvalidCredentials]; implementations should not
// distinguish the two.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) error
}
