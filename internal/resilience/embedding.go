package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// Ensure Embedding implements the interface.
var _ driven.EmbeddingProvider = (*Embedding)(nil)

// Embedding decorates an EmbeddingProvider with the failure policy.
type Embedding struct {
	inner   driven.EmbeddingProvider
	timeout time.Duration
	retry   RetryPolicy
	cb      *gobreaker.CircuitBreaker
}

// NewEmbedding wraps inner with timeout, retry and a circuit breaker.
func NewEmbedding(inner driven.EmbeddingProvider, cfg domain.Config) *Embedding {
	return &Embedding{
		inner:   inner,
		timeout: cfg.EmbedTimeout,
		retry:   PolicyFromConfig(cfg),
		cb:      newBreaker("embedding", cfg.BreakerFailures, cfg.BreakerCooldown),
	}
}

// EmbedBatch generates embeddings under the failure policy.
func (e *Embedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return execute(e.cb, func() ([][]float32, error) {
		return retryWithData(ctx, e.retry, func() ([][]float32, error) {
			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			return e.inner.EmbedBatch(callCtx, texts)
		})
	})
}

// Dimensions returns the wrapped provider's embedding size.
func (e *Embedding) Dimensions() int { return e.inner.Dimensions() }

// ModelName returns the wrapped provider's model name.
func (e *Embedding) ModelName() string { return e.inner.ModelName() }

// Ping checks reachability without engaging the breaker.
func (e *Embedding) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.inner.Ping(callCtx)
}

// Close releases the wrapped provider.
func (e *Embedding) Close() error { return e.inner.Close() }
