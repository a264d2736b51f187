// Package live holds the adapters that open realtime conversation
// channels to upstream agent providers. Adapters implement
// session.LiveAdapter; a connection failure degrades the session to the
// canned fallback responder rather than failing the turn.
package live

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/calmloop-dev/calmloop/pkg/session"
)

// ErrUnavailable is returned when an adapter cannot serve a connection
// right now (throttled, not configured, or upstream refused).
var ErrUnavailable = errors.New("live adapter unavailable")

// AdapterError wraps an upstream provider failure with enough context
// to log it usefully.
type AdapterError struct {
	Adapter string
	Op      string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Adapter + " " + e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Adapter + " " + e.Op + ": " + e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func newAdapterError(adapter, op, message string, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Op: op, Message: message, Err: err}
}

// Throttled caps the rate of upstream connection attempts. A throttled
// Connect fails fast with ErrUnavailable instead of blocking the turn,
// so the caller falls back immediately.
type Throttled struct {
	inner   session.LiveAdapter
	limiter *rate.Limiter
}

// Throttle wraps adapter with a connection rate limit.
func Throttle(adapter session.LiveAdapter, limiter *rate.Limiter) *Throttled {
	return &Throttled{inner: adapter, limiter: limiter}
}

func (t *Throttled) Connect(ctx context.Context, systemPrompt string, modalities []session.Modality) (session.LiveChannel, error) {
	if !t.limiter.Allow() {
		return nil, ErrUnavailable
	}
	return t.inner.Connect(ctx, systemPrompt, modalities)
}

func (t *Throttled) Name() string {
	return t.inner.Name()
}

func hasModality(modalities []session.Modality, want session.Modality) bool {
	for _, m := range modalities {
		if m == want {
			return true
		}
	}
	return false
}
