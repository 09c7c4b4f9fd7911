package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lpawlik/authgate/internal/rate"
	"github.com/lpawlik/authgate/session"
	"github.com/lpawlik/authgate/token"
)

// Engine drives the sign-in, refresh and sign-out workflows over a
// principal's token pair. All methods are safe for concurrent use; the only
// shared mutable state is the Redis store.
type Engine struct {
	config      Config
	codec       *token.Codec
	issuer      *token.Issuer
	sessions    *session.Store
	limiter     *rate.Limiter
	credentials CredentialVerifier
	audit       *auditDispatcher
	metrics     *Metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped under load.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && e.issuer != nil && e.sessions != nil && e.credentials != nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// emitAudit queues one event; the metadata closure only runs when auditing
// is enabled so request paths pay nothing otherwise.
func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, subject string, cause error, meta func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Subject:   subject,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if meta != nil {
		event.Metadata = meta()
	}
	e.audit.Emit(ctx, event)
}

// storeErr surfaces an infrastructure failure. The engine performs no
// internal retries; the caller decides what to do with an unavailable store.
func (e *Engine) storeErr(err error) error {
	e.metricInc(MetricStoreError)
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// collapseTokenError folds the codec's fine-grained taxonomy into the
// engine-boundary errors: expiry stays distinguishable, everything else is
// ErrTokenInvalid.
func collapseTokenError(err error) error {
	if errors.Is(err, token.ErrExpired) {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
