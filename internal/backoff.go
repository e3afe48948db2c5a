package internal

import (
	"errors"
	"math/rand/v2"
	"time"
)

// RetryPolicy is a stateless description of the dispatcher's retry behavior:
// delay is a pure function of the attempt number plus jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

// DefaultRetryPolicy matches the dispatcher defaults: 3 attempts, 500ms base
// delay doubling per attempt, capped at 8s, with 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Jitter:      0.2,
	}
}

// Delay returns the backoff before the given retry. Attempts are 1-based:
// Delay(1) is the wait after the first failure.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.MaxDelay
	if shift := attempt - 1; shift < 32 {
		d = p.BaseDelay << shift
	}
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Retryable reports whether an outcome may be retried at all: transport
// failures and HTTP 5xx qualify; auth and other 4xx outcomes never do.
// Idempotency of the request is judged by the caller.
func Retryable(err error) bool {
	var te *TransportError
	var se *ServerError
	return errors.As(err, &te) || errors.As(err, &se)
}
