package driven

import "context"

// CompleteOptions configures text generation behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// GenerationProvider produces text completions for the answer pipeline.
//
// Implementations may include:
//   - OpenAI (GPT-4o and compatible chat-completion APIs)
//   - Anthropic (Claude)
//
// Failures map onto domain.ErrRateLimited, domain.ErrUnavailable or
// domain.ErrProviderTimeout.
type GenerationProvider interface {
	// Complete generates an answer to question under systemPrompt.
	// contextBlock is the retrieved grounding context; it may be empty,
	// in which case the provider answers from general knowledge.
	Complete(ctx context.Context, systemPrompt, contextBlock, question string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
