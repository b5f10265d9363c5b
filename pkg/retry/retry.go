// Package retry re-runs idempotent gateway reads with exponential backoff.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	cblog "github.com/charmbracelet/log"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

// Policy says how many attempts to make and how long to wait between them
type Policy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	Factor   float64
	// Jitter is the fraction of each delay added at random
	Jitter    float64
	Retryable func(*apperrors.AppError) bool
}

// Reads is the policy for list calls. Mutations are never retried: a create
// that timed out may still have landed, and a second attempt would conflict.
var Reads = Policy{
	Attempts:  3,
	Base:      200 * time.Millisecond,
	Cap:       2 * time.Second,
	Factor:    2.0,
	Jitter:    0.1,
	Retryable: Transient,
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx ends. The returned error is always an *AppError.
func (p Policy) Do(ctx context.Context, name string, fn func(attempt int) error) error {
	log := cblog.With("component", "retry", "op", name)

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				log.Info("Succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		appErr, ok := apperrors.As(err)
		if !ok {
			appErr = apperrors.Wrap(err, apperrors.ErrorInternal, "RETRY_OPERATION_FAILED", "Operation failed")
		}
		if p.Retryable == nil || !p.Retryable(appErr) {
			return appErr
		}
		if attempt >= p.Attempts {
			log.Warn("Giving up", "attempts", attempt, "err", appErr.Message)
			return appErr.WithContext("retryAttempts", attempt)
		}

		delay := p.Delay(attempt)
		log.Debug("Attempt failed, retrying", "attempt", attempt, "in", delay, "err", appErr.Message)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.Wrap(ctx.Err(), apperrors.ErrorTimeout, "RETRY_CANCELLED", "Retry cancelled").
				WithContext("retryAttempts", attempt)
		case <-timer.C:
		}
	}
}

// Delay is the wait after the given failed attempt
func (p Policy) Delay(attempt int) time.Duration {
	d := time.Duration(float64(p.Base) * math.Pow(p.Factor, float64(attempt-1)))
	if p.Cap > 0 && d > p.Cap {
		d = p.Cap
	}
	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(d))
	}
	return d
}

// Transient is true for transport failures, timeouts and gateway 5xx
func Transient(err *apperrors.AppError) bool {
	if err == nil {
		return false
	}
	switch err.Category {
	case apperrors.ErrorNetwork, apperrors.ErrorTimeout:
		return !err.IsCode("REQUEST_CANCELLED")
	case apperrors.ErrorAuth, apperrors.ErrorValidation, apperrors.ErrorConflict:
		return false
	case apperrors.ErrorAPI:
		return err.IsCode("SERVER_ERROR") || err.IsCode("SERVICE_UNAVAILABLE")
	default:
		return err.Recoverable
	}
}
