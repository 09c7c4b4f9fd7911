package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/lpawlik/authgate/internal/rate"
	"github.com/lpawlik/authgate/session"
)

// Refresh rotates the principal's token pair. The presented refresh token
// must verify and must be exactly the stored live token; any mismatch,
// including a token already rotated away, fails with [ErrTokenInvalid].
// The overwrite is a Redis-side compare-and-set, so of N concurrent calls
// presenting the same token exactly one succeeds.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", err, func() map[string]string {
			return map[string]string{"reason": "verify_failed"}
		})
		return TokenPair{}, collapseTokenError(err)
	}
	subject := claims.Subject

	if e.limiter != nil {
		if err := e.limiter.CheckRefresh(ctx, subject); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRefreshRateLimited)
				e.emitAudit(ctx, auditEventRefreshFailure, false, subject, ErrRefreshRateLimited, nil)
				return TokenPair{}, ErrRefreshRateLimited
			}
			return TokenPair{}, e.storeErr(err)
		}
	}

	pair, err := e.issuer.IssuePair(subject)
	if err != nil {
		return TokenPair{}, err
	}

	err = e.sessions.Rotate(ctx, subject, refreshToken, pair.RefreshToken, e.issuer.RefreshTTL())
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, subject, err, func() map[string]string {
			return map[string]string{"reason": "no_session"}
		})
		return TokenPair{}, fmt.Errorf("%w: no active session", ErrTokenInvalid)
	case errors.Is(err, session.ErrTokenMismatch):
		e.metricInc(MetricReplayRejected)
		e.emitAudit(ctx, auditEventRefreshReplay, false, subject, err, nil)
		return TokenPair{}, fmt.Errorf("%w: refresh token superseded", ErrTokenInvalid)
	default:
		return TokenPair{}, e.storeErr(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefresh, true, subject, nil, nil)
	return TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}
