package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/lpawlik/authgate/internal/rate"
)

// SignIn verifies the principal's credentials through the external
// collaborator and, on success, issues a fresh token pair and stores the
// refresh token as the principal's single live session record, superseding
// any prior session.
func (e *Engine) SignIn(ctx context.Context, email, password string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.CheckSignIn(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricSignInRateLimited)
				e.emitAudit(ctx, auditEventSignInRateLimited, false, email, ErrSignInRateLimited, nil)
				return TokenPair{}, ErrSignInRateLimited
			}
			return TokenPair{}, e.storeErr(err)
		}
	}

	if err := e.credentials.VerifyCredentials(ctx, email, password); err != nil {
		if e.limiter != nil {
			if incErr := e.limiter.IncrementSignIn(ctx, email, ip); errors.Is(incErr, rate.ErrRateLimited) {
				e.metricInc(MetricSignInRateLimited)
				e.emitAudit(ctx, auditEventSignInRateLimited, false, email, ErrSignInRateLimited, nil)
				return TokenPair{}, ErrSignInRateLimited
			}
		}
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, email, ErrInvalidCredentials, nil)
		if !errors.Is(err, ErrInvalidCredentials) {
			err = fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return TokenPair{}, err
	}

	pair, err := e.issuer.IssuePair(email)
	if err != nil {
		return TokenPair{}, err
	}

	if err := e.sessions.Save(ctx, email, pair.RefreshToken, e.issuer.RefreshTTL()); err != nil {
		return TokenPair{}, e.storeErr(err)
	}

	if e.limiter != nil {
		// Best effort: a stale counter only shortens the budget of a
		// principal who just proved their identity.
		_ = e.limiter.ResetSignIn(ctx, email, ip)
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignIn, true, email, nil, nil)
	return TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}
