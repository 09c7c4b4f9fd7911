package authgate

import (
	"context"
	"time"

	"github.com/lpawlik/authgate/token"
)

// Validate is the hot path for ordinary requests: it verifies the access
// token's structure, signature and expiry and returns its claims. It never
// touches Redis; revocation of access tokens before their natural expiry is
// deliberately out of scope; integrators needing the stronger check can
// consult the session store's blacklist themselves.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*token.Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	_ = ctx

	start := time.Now()
	claims, err := e.codec.Verify(accessToken)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))
	if err != nil {
		return nil, collapseTokenError(err)
	}
	return claims, nil
}
