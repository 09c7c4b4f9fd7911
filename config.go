package authgate

import (
	"errors"
	"time"

	"github.com/lpawlik/authgate/token"
)

// Config is the full engine configuration. Instances are assembled once at
// process start (from whatever config source the host application uses) and
// treated as immutable; the engine never reloads it at runtime.
type Config struct {
	Token     TokenConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig carries the signing material and the two TTLs. The invariant
// AccessTTL < RefreshTTL is enforced once at Build, not per call.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// SessionConfig controls the Redis record layout.
type SessionConfig struct {
	// BlacklistPrefix namespaces revocation keys; session keys are the bare
	// principal email. Defaults to "Blacklist_".
	BlacklistPrefix string
}

// RateLimitConfig tunes the fixed-window sign-in and refresh throttles.
// Disabled by default.
type RateLimitConfig struct {
	Enabled               bool
	EnableIPThrottle      bool
	EnableRefreshThrottle bool
	MaxSignInAttempts     int
	SignInCooldown        time.Duration
	MaxRefreshAttempts    int
	RefreshCooldown       time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events rather than blocking request goroutines when
	// the buffer is saturated.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: 15-minute access tokens,
// 7-day refresh tokens, hs256 signing (secret still required), audit,
// metrics and rate limiting off.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
		},
		Session: SessionConfig{
			BlacklistPrefix: "Blacklist_",
		},
		RateLimit: RateLimitConfig{
			Enabled:            false,
			EnableIPThrottle:   true,
			MaxSignInAttempts:  5,
			SignInCooldown:     15 * time.Minute,
			MaxRefreshAttempts: 10,
			RefreshCooldown:    time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Token.AccessTTL <= 0 || cfg.Token.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if cfg.Token.AccessTTL >= cfg.Token.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.MaxSignInAttempts <= 0 || cfg.RateLimit.SignInCooldown <= 0 {
			return errors.New("invalid sign-in rate limit configuration")
		}
		if cfg.RateLimit.EnableRefreshThrottle &&
			(cfg.RateLimit.MaxRefreshAttempts <= 0 || cfg.RateLimit.RefreshCooldown <= 0) {
			return errors.New("invalid refresh rate limit configuration")
		}
	}
	return nil
}

func tokenCodecConfig(cfg TokenConfig) token.Config {
	method := token.MethodHS256
	if cfg.SigningMethod == string(token.MethodEd25519) {
		method = token.MethodEd25519
	}
	return token.Config{
		SigningMethod: method,
		Secret:        cfg.Secret,
		PrivateKey:    cfg.PrivateKey,
		PublicKey:     cfg.PublicKey,
		Issuer:        cfg.Issuer,
		Leeway:        cfg.Leeway,
	}
}
