package authgate

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/lpawlik/authgate/internal/rate"
	"github.com/lpawlik/authgate/session"
	"github.com/lpawlik/authgate/token"
)

// Builder assembles an [Engine] from its collaborators. Construction is
// allocation-only; no I/O happens until the first Engine method call.
type Builder struct {
	config      Config
	redis       redis.UniversalClient
	credentials CredentialVerifier
	auditSink   AuditSink

	built bool
}

// New returns a Builder primed with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the session store and, when
// enabled, the rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentials sets the external credential collaborator consulted by
// SignIn.
func (b *Builder) WithCredentials(cv CredentialVerifier) *Builder {
	b.credentials = cv
	return b
}

// WithAuditSink sets the destination for audit events. Ignored unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration, wires the collaborators and returns a
// ready Engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.credentials == nil {
		return nil, errors.New("credential verifier is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(tokenCodecConfig(b.config.Token))
	if err != nil {
		return nil, err
	}
	issuer, err := token.NewIssuer(codec, b.config.Token.AccessTTL, b.config.Token.RefreshTTL)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if b.config.RateLimit.Enabled {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      b.config.RateLimit.EnableIPThrottle,
			EnableRefreshThrottle: b.config.RateLimit.EnableRefreshThrottle,
			MaxSignInAttempts:     b.config.RateLimit.MaxSignInAttempts,
			SignInCooldown:        b.config.RateLimit.SignInCooldown,
			MaxRefreshAttempts:    b.config.RateLimit.MaxRefreshAttempts,
			RefreshCooldown:       b.config.RateLimit.RefreshCooldown,
		})
	}

	b.built = true
	return &Engine{
		config:      b.config,
		codec:       codec,
		issuer:      issuer,
		sessions:    session.NewStore(b.redis, b.config.Session.BlacklistPrefix),
		limiter:     limiter,
		credentials: b.credentials,
		audit:       newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:     NewMetrics(b.config.Metrics),
	}, nil
}
