package authgate

import (
	"context"
	"time"
)

// SignOut revokes the principal's session. The access token identifies the
// caller and must fully verify; the refresh token only needs a valid
// signature, since its embedded expiry is read to size the blacklist entry.
// The session-record delete and the blacklist insert execute atomically, and
// the blacklist TTL equals the refresh token's remaining validity: never
// longer (wasted store space) and never shorter (a reopened window).
//
// A missing session record is not an error: sign-out on an already-expired
// session still records the revocation. When the refresh token's remaining
// validity is zero or negative the blacklist insert is skipped entirely;
// the token can no longer pass expiry checks, so there is nothing left to
// revoke. With a non-zero codec leeway that leaves the leeway window
// uncovered; deployments relying on leeway should treat it as part of the
// token's lifetime.
func (e *Engine) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	expiry, err := e.codec.PeekExpiration(refreshToken)
	if err != nil {
		return collapseTokenError(err)
	}
	claims, err := e.codec.Verify(accessToken)
	if err != nil {
		return collapseTokenError(err)
	}
	subject := claims.Subject
	remaining := time.Until(expiry)

	if remaining <= 0 {
		if err := e.sessions.Delete(ctx, subject); err != nil {
			return e.storeErr(err)
		}
		e.metricInc(MetricSignOutExpiredToken)
		e.emitAudit(ctx, auditEventSignOut, true, subject, nil, func() map[string]string {
			return map[string]string{"blacklist": "skipped_expired"}
		})
		return nil
	}

	if err := e.sessions.Revoke(ctx, subject, refreshToken, remaining); err != nil {
		return e.storeErr(err)
	}

	e.metricInc(MetricSignOut)
	e.emitAudit(ctx, auditEventSignOut, true, subject, nil, nil)
	return nil
}
