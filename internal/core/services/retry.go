package services

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// RetryPolicy bounds and retries calls to external services.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// CallTimeout bounds each attempt. Zero disables the per-call deadline.
	CallTimeout time.Duration
}

// NewRetryPolicy converts settings into a policy with at least one attempt.
func NewRetryPolicy(s domain.RetrySettings) RetryPolicy {
	p := RetryPolicy{
		MaxAttempts: s.MaxAttempts,
		BaseDelay:   s.BaseDelay,
		MaxDelay:    s.MaxDelay,
		CallTimeout: s.CallTimeout,
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return p
}

// backoff returns the jittered delay before the given retry (1-based).
func (p RetryPolicy) backoff(retry int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << (retry - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	half := d / 2
	return half + rand.N(half+1)
}

// withRetry runs fn under the per-call timeout and retries transient failures.
// The last error is returned once attempts are exhausted.
func withRetry[T any](ctx context.Context, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := callOnce(ctx, p.CallTimeout, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !domain.IsTransient(err) || attempt == attempts {
			break
		}

		delay := p.backoff(attempt)
		logger.Warn("%s: attempt %d/%d failed, retrying in %s: %v", op, attempt, attempts, delay, err)
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func callOnce[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
