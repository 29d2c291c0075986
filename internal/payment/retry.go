package payment

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often a gateway call is attempted.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the pause after the given failed attempt (1-based).
	Backoff   func(attempt int) time.Duration
	Retryable func(error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes 3 attempts, waiting attempt × 1s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Retryable:   IsTransient,
		Sleep:       sleepCtx,
	}
}

// NoRetry makes exactly one attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func LinearBackoff(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * unit
	}
}

// IsTransient reports whether err is a gateway failure worth retrying.
func IsTransient(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Transient
	}
	return false
}

// Do calls fn until it succeeds, fails permanently or MaxAttempts is reached.
// When every attempt failed transiently the last error is wrapped in
// ErrGatewayUnavailable.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	max := p.MaxAttempts
	if max < 1 {
		max = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= max; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == max {
			break
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return ErrGatewayUnavailable.Wrap(err)
		}
	}
	return ErrGatewayUnavailable.
		WithMessage("payment gateway unavailable after %d attempts, try again later", max).
		Wrap(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
