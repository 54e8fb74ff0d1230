package domain

import (
	"fmt"
	"time"
)

// Config is the validated, immutable application configuration.
// It is built once at startup and passed by value to all components.
type Config struct {
	// ContentRoot is the directory scanned for ingestable files.
	ContentRoot string

	// Chunking.
	ChunkMinTokens int
	ChunkMaxTokens int
	ChunkOverlap   int

	// MaxFileSize is the per-file ingestion cap in bytes.
	MaxFileSize int64

	// IngestConcurrency bounds how many files are processed in parallel.
	IngestConcurrency int

	// Retrieval.
	TopK int
	// SimilarityThreshold gates whether retrieved chunks count as usable
	// context. Tunable: validate empirically against the embedding
	// provider's score distribution.
	SimilarityThreshold float64

	// ContextBudgetTokens caps the assembled prompt context.
	ContextBudgetTokens int

	// Generation.
	MaxAnswerTokens int
	Temperature     float64

	// Sessions.
	SessionWindow      time.Duration
	SessionMaxMessages int

	// Provider call policy.
	EmbedTimeout       time.Duration
	VectorTimeout      time.Duration
	GenerationTimeout  time.Duration
	MaxRetries         int
	RetryInitialDelay  time.Duration
	RetryMaxDelay      time.Duration
	BreakerFailures    int
	BreakerCooldown    time.Duration
	EmbedRatePerSecond float64
}

// DefaultConfig returns the built-in defaults. The similarity threshold
// default of 0.35 matches observed cosine score distributions for the
// default embedding models.
func DefaultConfig() Config {
	return Config{
		ContentRoot:         "./content",
		ChunkMinTokens:      100,
		ChunkMaxTokens:      500,
		ChunkOverlap:        50,
		MaxFileSize:         10 << 20,
		IngestConcurrency:   4,
		TopK:                10,
		SimilarityThreshold: 0.35,
		ContextBudgetTokens: 3000,
		MaxAnswerTokens:     1000,
		Temperature:         0.3,
		SessionWindow:       24 * time.Hour,
		SessionMaxMessages:  100,
		EmbedTimeout:        15 * time.Second,
		VectorTimeout:       10 * time.Second,
		GenerationTimeout:   60 * time.Second,
		MaxRetries:          3,
		RetryInitialDelay:   250 * time.Millisecond,
		RetryMaxDelay:       5 * time.Second,
		BreakerFailures:     3,
		BreakerCooldown:     30 * time.Second,
		EmbedRatePerSecond:  5,
	}
}

// Validate checks all configuration ranges. It runs exactly once at startup;
// components receive the config after validation and never re-check.
func (c Config) Validate() error {
	if c.ChunkMinTokens < 50 || c.ChunkMaxTokens > 2000 {
		return fmt.Errorf("%w: chunk size must be within 50-2000 tokens, got %d-%d",
			ErrInvalidInput, c.ChunkMinTokens, c.ChunkMaxTokens)
	}
	if c.ChunkMinTokens >= c.ChunkMaxTokens {
		return fmt.Errorf("%w: chunk min %d must be less than max %d",
			ErrInvalidInput, c.ChunkMinTokens, c.ChunkMaxTokens)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMinTokens {
		return fmt.Errorf("%w: chunk overlap %d must be non-negative and below the minimum chunk size",
			ErrInvalidInput, c.ChunkOverlap)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold %.2f must be in [0,1]",
			ErrInvalidInput, c.SimilarityThreshold)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidInput)
	}
	if c.ContextBudgetTokens <= 0 {
		return fmt.Errorf("%w: context budget must be positive", ErrInvalidInput)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max file size must be positive", ErrInvalidInput)
	}
	if c.IngestConcurrency <= 0 {
		return fmt.Errorf("%w: ingest concurrency must be positive", ErrInvalidInput)
	}
	if c.SessionWindow <= 0 {
		return fmt.Errorf("%w: session window must be positive", ErrInvalidInput)
	}
	if c.SessionMaxMessages <= 0 {
		return fmt.Errorf("%w: session message limit must be positive", ErrInvalidInput)
	}
	if c.EmbedTimeout <= 0 || c.VectorTimeout <= 0 || c.GenerationTimeout <= 0 {
		return fmt.Errorf("%w: provider timeouts must be positive", ErrInvalidInput)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must be non-negative", ErrInvalidInput)
	}
	if c.BreakerFailures <= 0 || c.BreakerCooldown <= 0 {
		return fmt.Errorf("%w: circuit breaker settings must be positive", ErrInvalidInput)
	}
	return nil
}
