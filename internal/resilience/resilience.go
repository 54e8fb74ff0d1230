// Package resilience wraps the external provider ports with the pipeline's
// failure policy: per-call timeouts, capped exponential retry for transient
// errors, and a circuit breaker per provider.
//
// A breaker opens after a run of consecutive failures and short-circuits
// further calls for a cooldown period, so a failing provider degrades the
// service instead of hanging it. Validation errors are never retried.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// RetryPolicy bounds transient-error retries.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialDelay is the first backoff interval.
	InitialDelay time.Duration

	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration
}

// PolicyFromConfig extracts the retry policy from the application config.
func PolicyFromConfig(cfg domain.Config) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.RetryInitialDelay,
		MaxDelay:     cfg.RetryMaxDelay,
	}
}

// classify maps context deadline errors onto the provider-timeout sentinel
// so the retry layer treats them as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrProviderTimeout) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return err
}

// retryWithData retries op with capped exponential backoff while the error
// stays transient. Non-transient errors abort immediately.
func retryWithData[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.MaxElapsedTime = 0

	wrapped := func() (T, error) {
		v, err := op()
		err = classify(err)
		if err != nil && !domain.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	return backoff.RetryWithData(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx))
}

// newBreaker builds a circuit breaker that trips after a run of
// consecutive failures and stays open for cooldown.
func newBreaker(name string, failures int, cooldown time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return int(c.ConsecutiveFailures) >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit %s: %s -> %s", name, from, to)
		},
	})
}

// execute runs fn through the breaker, translating open-circuit rejections
// into the domain sentinel.
func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	v, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w", cb.Name(), domain.ErrCircuitOpen)
		}
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}
