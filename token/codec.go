package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the JWT signing algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with an HMAC-SHA256 shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrMalformed is returned when a token's structure cannot be parsed.
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureInvalid is returned when a token's signature does not verify.
	ErrSignatureInvalid = errors.New("token signature mismatch")
	// ErrExpired is returned when a token's expiry is at or before now.
	ErrExpired = errors.New("token expired")
)

// Config carries the process-wide signing material and validation policy.
// Instances are configured once at startup and treated as immutable.
type Config struct {
	SigningMethod SigningMethod
	// Secret is the HMAC key for hs256.
	Secret []byte
	// PrivateKey/PublicKey are raw or PEM-encoded Ed25519 keys for ed25519.
	PrivateKey []byte
	PublicKey  []byte
	// Issuer, when non-empty, is embedded and enforced on verification.
	Issuer string
	// Leeway is the clock-skew tolerance applied to expiry comparisons.
	// Bounded to [0, 2m]; zero means exact comparisons.
	Leeway time.Duration
}

// Claims are the signed facts inside a token: subject (the principal's
// email), issued-at, expiry, and a unique jti. Immutable once signed.
type Claims struct {
	jwt.RegisteredClaims
}

// Codec signs claims into compact token strings and verifies them back.
type Codec struct {
	config Config
}

// NewCodec validates the signing configuration and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("hs256 requires a secret")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires a public key")
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	return &Codec{config: cfg}, nil
}

// Sign embeds subject, issued-at=now, expiry=now+ttl and a fresh jti, and
// signs the payload. The jti keeps two tokens minted within the same second
// distinct; rotation and revocation compare exact token strings.
func (c *Codec) Sign(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if c.config.Issuer != "" {
		claims.Issuer = c.config.Issuer
	}

	signKey, err := c.signKey()
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(c.method(), claims).SignedString(signKey)
}

// Verify checks structure, signature and expiry, in that order, and returns
// the embedded claims. Failures map to ErrMalformed, ErrSignatureInvalid or
// ErrExpired.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	claims, err := c.parse(tokenStr, false)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// PeekExpiration returns the embedded expiry without enforcing the expiry
// check. The signature is still verified: an attacker must not be able to
// steer revocation bookkeeping with a forged expiry. Needed when computing a
// blacklist TTL for a token that may already be at or past expiry.
func (c *Codec) PeekExpiration(tokenStr string) (time.Time, error) {
	claims, err := c.parse(tokenStr, true)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.ExpiresAt.Time, nil
}

func (c *Codec) parse(tokenStr string, skipClaimChecks bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
	}
	if skipClaimChecks {
		options = append(options, jwt.WithoutClaimsValidation())
	} else {
		options = append(options, jwt.WithExpirationRequired())
		if c.config.Leeway > 0 {
			options = append(options, jwt.WithLeeway(c.config.Leeway))
		}
		if c.config.Issuer != "" {
			options = append(options, jwt.WithIssuer(c.config.Issuer))
		}
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.verifyKey()
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// classifyParseError maps jwt/v5 errors onto the codec taxonomy. jwt/v5
// joins causes, so the checks run most-specific first: a token that is both
// tampered and expired reports the signature failure.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func (c *Codec) signKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return parseEdPrivateKey(c.config.PrivateKey)
	default:
		return c.config.Secret, nil
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodEd25519:
		return parseEdPublicKey(c.config.PublicKey)
	default:
		return c.config.Secret, nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
