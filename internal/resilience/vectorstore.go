package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore decorates a driven.VectorStore with the failure policy.
type VectorStore struct {
	inner   driven.VectorStore
	timeout time.Duration
	retry   RetryPolicy
	cb      *gobreaker.CircuitBreaker
}

// NewVectorStore wraps inner with timeout, retry and a circuit breaker.
func NewVectorStore(inner driven.VectorStore, cfg domain.Config) *VectorStore {
	return &VectorStore{
		inner:   inner,
		timeout: cfg.VectorTimeout,
		retry:   PolicyFromConfig(cfg),
		cb:      newBreaker("vectorstore", cfg.BreakerFailures, cfg.BreakerCooldown),
	}
}

// EnsureCollection creates or verifies the collection under the policy.
// A dimension mismatch is permanent and aborts without retries.
func (s *VectorStore) EnsureCollection(ctx context.Context, dimensions int) error {
	_, err := execute(s.cb, func() (struct{}, error) {
		return retryWithData(ctx, s.retry, func() (struct{}, error) {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return struct{}{}, s.inner.EnsureCollection(callCtx, dimensions)
		})
	})
	return err
}

// Upsert stores points under the failure policy.
func (s *VectorStore) Upsert(ctx context.Context, points []driven.Point) error {
	_, err := execute(s.cb, func() (struct{}, error) {
		return retryWithData(ctx, s.retry, func() (struct{}, error) {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return struct{}{}, s.inner.Upsert(callCtx, points)
		})
	})
	return err
}

// Query searches under the failure policy.
func (s *VectorStore) Query(ctx context.Context, vector []float32, filter *driven.Filter, topK int) ([]driven.Hit, error) {
	return execute(s.cb, func() ([]driven.Hit, error) {
		return retryWithData(ctx, s.retry, func() ([]driven.Hit, error) {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return s.inner.Query(callCtx, vector, filter, topK)
		})
	})
}

// CountByHash counts fingerprint occurrences under the failure policy.
func (s *VectorStore) CountByHash(ctx context.Context, contentHash string) (int, error) {
	return execute(s.cb, func() (int, error) {
		return retryWithData(ctx, s.retry, func() (int, error) {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return s.inner.CountByHash(callCtx, contentHash)
		})
	})
}

// Close releases the wrapped store.
func (s *VectorStore) Close() error { return s.inner.Close() }
