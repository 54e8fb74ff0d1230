package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Expired sessions are reported as not found by the caller-facing contract.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Never retried and always surfaced with a precise reason.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMessageLimit indicates a session has reached its message cap.
	ErrMessageLimit = errors.New("session message limit exceeded")

	// ErrDimensionMismatch indicates an embedding whose size does not match
	// the index. The embedding dimension is constant across the whole index,
	// so a mismatch is a fatal ingestion error.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRunCancelled indicates an ingestion run was cancelled by request.
	ErrRunCancelled = errors.New("ingestion run cancelled")

	// Provider errors. These are transient: retried with capped exponential
	// backoff, then surfaced as degraded mode.

	// ErrProviderTimeout indicates an external call exceeded its deadline.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrRateLimited indicates a provider rejected the call due to quota.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates a provider is unreachable or failing.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrCircuitOpen indicates calls to a provider are short-circuited
	// while its failure circuit is open.
	ErrCircuitOpen = errors.New("circuit open")

	// ErrInjectionDetected indicates retrieved content attempted to override
	// system instructions. The content is excluded from context, never
	// executed as an instruction.
	ErrInjectionDetected = errors.New("prompt injection detected")
)

// IsTransient reports whether err is a provider failure that may succeed
// on retry. Validation and not-found errors are never transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProviderTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable)
}

// IsDegraded reports whether err should surface to the caller as a
// degraded-mode response rather than a hard failure.
func IsDegraded(err error) bool {
	return IsTransient(err) || errors.Is(err, ErrCircuitOpen)
}
