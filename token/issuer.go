package token

import (
	"errors"
	"time"
)

// Pair is the paired result of a single issuance: a short-lived access token
// and a long-lived refresh token, both signed by the same codec.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer mints token pairs for a principal. It is a pure function of the
// subject and the current time; persisting the refresh token is the
// orchestrator's responsibility.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer enforces the configuration invariant accessTTL < refreshTTL once,
// at construction; IssuePair does not re-check it per call.
func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if codec == nil {
		return nil, errors.New("issuer requires a codec")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	if accessTTL >= refreshTTL {
		return nil, errors.New("access TTL must be shorter than refresh TTL")
	}
	return &Issuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// IssuePair signs two tokens for subject with the configured TTLs.
func (i *Issuer) IssuePair(subject string) (Pair, error) {
	access, err := i.codec.Sign(subject, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.codec.Sign(subject, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL reports the configured refresh-token lifetime. The session
// store uses it as the TTL of the per-principal refresh record.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }
