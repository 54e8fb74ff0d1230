// Package chunker splits document text into overlapping, token-bounded
// segments for embedding and retrieval.
//
// Tokens are whitespace-delimited words. The same rule is used everywhere
// token counts matter (chunk bounds, context budgets), so retrieval scores
// stay comparable across the pipeline.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// Config bounds chunk sizes in tokens.
type Config struct {
	// MinTokens is the target lower bound. Only the final chunk of a
	// document may fall below it.
	MinTokens int

	// MaxTokens is the window size. No chunk exceeds it.
	MaxTokens int

	// Overlap is the number of trailing tokens of chunk i that reappear
	// as the leading tokens of chunk i+1.
	Overlap int
}

// Chunker splits text deterministically: identical text with identical
// parameters yields byte-identical chunk boundaries.
type Chunker struct {
	cfg Config
}

// New creates a chunker. Bounds must already have passed config validation,
// but the structural requirements are re-checked so the zero value cannot
// loop forever.
func New(cfg Config) (*Chunker, error) {
	if cfg.MaxTokens <= 0 || cfg.MinTokens <= 0 {
		return nil, fmt.Errorf("%w: chunk bounds must be positive", domain.ErrInvalidInput)
	}
	if cfg.MinTokens > cfg.MaxTokens {
		return nil, fmt.Errorf("%w: chunk min %d exceeds max %d", domain.ErrInvalidInput, cfg.MinTokens, cfg.MaxTokens)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxTokens {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, max)", domain.ErrInvalidInput, cfg.Overlap)
	}
	return &Chunker{cfg: cfg}, nil
}

// Tokens returns the token sequence of text under the pipeline's fixed
// tokenizer rule.
func Tokens(text string) []string {
	return strings.Fields(text)
}

// CountTokens returns the token count of text.
func CountTokens(text string) int {
	return len(Tokens(text))
}

// Split cuts text into ordered chunks. Every chunk is within
// [MinTokens, MaxTokens] except possibly the final one, which may be
// smaller. A document shorter than MinTokens produces exactly one chunk.
// Empty or whitespace-only text produces none.
func (c *Chunker) Split(text string) []string {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= c.cfg.MaxTokens {
		return []string{strings.Join(tokens, " ")}
	}

	step := c.cfg.MaxTokens - c.cfg.Overlap
	chunks := make([]string, 0, len(tokens)/step+1)
	undersized := 0

	for start := 0; start < len(tokens); start += step {
		end := start + c.cfg.MaxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.Join(tokens[start:end], " ")
		if n := end - start; n < c.cfg.MinTokens {
			undersized++
		}
		chunks = append(chunks, chunk)
		if end == len(tokens) {
			break
		}
	}

	// Out-of-range chunks are a monitored quality signal, not a failure.
	// Only trailing chunks can be undersized with a fixed window, but the
	// 10% signal is checked uniformly.
	if len(chunks) > 0 && float64(undersized)/float64(len(chunks)) > 0.10 {
		logger.Warn("chunker: %d of %d chunks below %d tokens", undersized, len(chunks), c.cfg.MinTokens)
	}

	return chunks
}
