package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/bookchat/internal/chunker"
	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// excerptLen bounds the source excerpt shown to callers.
const excerptLen = 200

// injectionPatterns match retrieved text that tries to address the model
// directly. Matching chunks are dropped from context and recorded, never
// passed through.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above)\s+(instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+|any\s+)?(previous|prior|above|your)\s+(instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|in)\s`),
	regexp.MustCompile(`(?i)\bnew\s+system\s+prompt\b`),
	regexp.MustCompile(`(?i)^\s*system\s*:`),
	regexp.MustCompile(`(?i)reveal\s+(your\s+)?(system\s+prompt|instructions)`),
}

// ContextAssembler builds the prompt context block from retrieved chunks.
//
// Every chunk is rendered inside an explicit delimiter carrying its
// citation tag, so the generation prompt can require citations and the
// model can be told the block is reference material, not instructions.
type ContextAssembler struct {
	budgetTokens int
}

// NewContextAssembler creates a context assembler.
func NewContextAssembler(cfg domain.Config) *ContextAssembler {
	return &ContextAssembler{budgetTokens: cfg.ContextBudgetTokens}
}

// AssembledContext is the outcome of one assembly pass.
type AssembledContext struct {
	// Block is the formatted context text handed to the generation
	// prompt. Empty when nothing usable survived.
	Block string

	// Sources parallel the chunks included in Block, in block order.
	Sources []domain.Source

	// Excluded counts chunks dropped by injection screening.
	Excluded int

	// Truncated reports whether the token budget cut off lower-scored
	// chunks.
	Truncated bool
}

// suspicious reports whether content matches an injection pattern.
func suspicious(content string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// excerpt returns the first excerptLen characters of content, cut on a
// rune boundary.
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= excerptLen {
		return content
	}
	return string(runes[:excerptLen])
}

// Assemble formats chunks into a citation-tagged context block within the
// token budget. Chunks arrive ordered best-first and are included in that
// order, so truncation always keeps the most relevant material.
func (a *ContextAssembler) Assemble(chunks []domain.RetrievedChunk) AssembledContext {
	var out AssembledContext
	var b strings.Builder
	used := 0

	for _, c := range chunks {
		if suspicious(c.Content) {
			out.Excluded++
			logger.Warn("Excluding chunk [%s:%d] from context: %v", c.SourceID, c.ChunkIndex, domain.ErrInjectionDetected)
			continue
		}

		tag := fmt.Sprintf("[%s:%d]", c.SourceID, c.ChunkIndex)
		section := fmt.Sprintf("--- excerpt %s ---\n%s\n--- end %s ---\n\n", tag, c.Content, tag)

		cost := chunker.CountTokens(section)
		if used+cost > a.budgetTokens {
			out.Truncated = true
			break
		}
		used += cost

		b.WriteString(section)
		out.Sources = append(out.Sources, domain.Source{
			SourceID:   c.SourceID,
			ChunkIndex: c.ChunkIndex,
			Score:      c.Score,
			Excerpt:    excerpt(c.Content),
		})
	}

	out.Block = strings.TrimSuffix(b.String(), "\n")
	if out.Truncated {
		logger.Debug("Context budget reached: %d of %d chunks included", len(out.Sources), len(chunks))
	}
	return out
}
