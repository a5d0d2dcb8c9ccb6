package api

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/quocvuong92/zor/internal/logging"
)

// Default backoff configuration, used when a Policy leaves a field zero
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
	BackoffMultiplier  = 2.0
)

// Policy controls how failed attempts are retried
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter spreads each delay over [d/2, d)
	Jitter bool
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// Backoff returns the delay before retry number retry (0-based). Without
// jitter the sequence doubles from BaseDelay and is capped at MaxDelay, so
// it never decreases.
func (p Policy) Backoff(retry int, rnd func() float64) time.Duration {
	p = p.normalized()
	backoff := p.BaseDelay
	for i := 0; i < retry; i++ {
		backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		if backoff >= p.MaxDelay {
			backoff = p.MaxDelay
			break
		}
	}
	if p.Jitter && backoff > 0 && rnd != nil {
		half := backoff / 2
		backoff = half + time.Duration(rnd()*float64(half))
	}
	return backoff
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier applies a Policy. Sleep and Rand are replaceable so tests can
// observe delays without waiting.
type Retrier struct {
	Policy Policy
	Sleep  Sleeper
	Rand   func() float64
	Logger *logging.Logger
}

// NewRetrier creates a Retrier with real sleeping and jitter source
func NewRetrier(policy Policy, logger *logging.Logger) *Retrier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Retrier{
		Policy: policy.normalized(),
		Sleep:  SleepContext,
		Rand:   rand.Float64,
		Logger: logger,
	}
}

// RetryableFunc is one attempt
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// WithRetry runs fn until it succeeds, fails permanently or the attempt
// budget is spent. It returns the number of attempts made. Exhausting the
// budget yields *RateLimitError or *TransientNetworkError depending on the
// kind of the last failure.
func WithRetry[T any](ctx context.Context, r *Retrier, fn RetryableFunc[T]) (T, int, error) {
	var zero T
	policy := r.Policy.normalized()
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, fmt.Errorf("operation cancelled: %w", err)
		}

		result, err := fn(ctx)
		if err == nil {
			return result, attempt, nil
		}

		kind := KindOf(err)
		if !kind.Retryable() {
			return zero, attempt, err
		}

		if attempt >= policy.MaxAttempts {
			if kind == KindRateLimited {
				return zero, attempt, &RateLimitError{Attempts: attempt, Last: err}
			}
			return zero, attempt, &TransientNetworkError{Attempts: attempt, Last: err}
		}

		delay := policy.Backoff(attempt-1, r.Rand)
		logger.Warn("Request failed, retrying", logging.Fields{
			"attempt":  attempt,
			"kind":     kind.String(),
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})

		if err := sleep(ctx, delay); err != nil {
			return zero, attempt, fmt.Errorf("operation cancelled: %w", err)
		}
	}
}
