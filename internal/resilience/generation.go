package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// Ensure Generation implements the interface.
var _ driven.GenerationProvider = (*Generation)(nil)

// Generation decorates a GenerationProvider with the failure policy.
// Generation calls carry a longer timeout cap than embedding or vector
// store calls.
type Generation struct {
	inner   driven.GenerationProvider
	timeout time.Duration
	retry   RetryPolicy
	cb      *gobreaker.CircuitBreaker
}

// NewGeneration wraps inner with timeout, retry and a circuit breaker.
func NewGeneration(inner driven.GenerationProvider, cfg domain.Config) *Generation {
	return &Generation{
		inner:   inner,
		timeout: cfg.GenerationTimeout,
		retry:   PolicyFromConfig(cfg),
		cb:      newBreaker("generation", cfg.BreakerFailures, cfg.BreakerCooldown),
	}
}

// Complete generates text under the failure policy.
func (g *Generation) Complete(ctx context.Context, systemPrompt, contextBlock, question string, opts driven.CompleteOptions) (string, error) {
	return execute(g.cb, func() (string, error) {
		return retryWithData(ctx, g.retry, func() (string, error) {
			callCtx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()
			return g.inner.Complete(callCtx, systemPrompt, contextBlock, question, opts)
		})
	})
}

// ModelName returns the wrapped provider's model name.
func (g *Generation) ModelName() string { return g.inner.ModelName() }

// Ping checks reachability without engaging the breaker.
func (g *Generation) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.inner.Ping(callCtx)
}

// Close releases the wrapped provider.
func (g *Generation) Close() error { return g.inner.Close() }
