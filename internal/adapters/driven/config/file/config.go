// Package file loads the application configuration from a TOML file,
// applies environment overrides and validates the result.
//
// Secrets never live in the file: API keys are read from the environment
// only (OPENAI_API_KEY, ANTHROPIC_API_KEY, QDRANT_API_KEY).
package file

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

// Backend and provider identifiers accepted in the config file.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	BackendQdrant = "qdrant"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// ProviderSettings selects and configures one external provider.
type ProviderSettings struct {
	// Provider names the adapter: openai, anthropic or ollama.
	Provider string `toml:"provider"`

	// Model overrides the adapter's default model.
	Model string `toml:"model"`

	// BaseURL overrides the adapter's default endpoint.
	BaseURL string `toml:"base_url"`

	// Dimensions overrides the embedding dimension (embedding only).
	Dimensions int `toml:"dimensions"`

	// APIKey is filled from the environment, never from the file.
	APIKey string `toml:"-"`
}

// VectorStoreSettings configures the vector store backend.
type VectorStoreSettings struct {
	// Backend is qdrant or memory.
	Backend string `toml:"backend"`

	// URL is the Qdrant endpoint.
	URL string `toml:"url"`

	// Collection is the Qdrant collection name.
	Collection string `toml:"collection"`

	// APIKey is filled from the environment, never from the file.
	APIKey string `toml:"-"`
}

// SessionSettings configures the session backend.
type SessionSettings struct {
	// Backend is memory or sqlite.
	Backend string `toml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `toml:"sqlite_path"`
}

// Settings is the full application configuration: the validated core
// config plus adapter selection.
type Settings struct {
	Core        domain.Config
	Embedding   ProviderSettings
	Generation  ProviderSettings
	VectorStore VectorStoreSettings
	Sessions    SessionSettings
}

// fileSchema mirrors the TOML layout of the config file.
type fileSchema struct {
	ContentRoot string `toml:"content_root"`

	Chunking struct {
		MinTokens int `toml:"min_tokens"`
		MaxTokens int `toml:"max_tokens"`
		Overlap   int `toml:"overlap"`
	} `toml:"chunking"`

	Ingestion struct {
		MaxFileSize int64 `toml:"max_file_size"`
		Concurrency int   `toml:"concurrency"`
	} `toml:"ingestion"`

	Retrieval struct {
		TopK                int     `toml:"top_k"`
		SimilarityThreshold float64 `toml:"similarity_threshold"`
		ContextBudgetTokens int     `toml:"context_budget_tokens"`
	} `toml:"retrieval"`

	Generation struct {
		ProviderSettings
		MaxTokens   int     `toml:"max_tokens"`
		Temperature float64 `toml:"temperature"`
		TimeoutSecs int     `toml:"timeout_seconds"`
	} `toml:"generation"`

	Embedding struct {
		ProviderSettings
		RatePerSecond float64 `toml:"rate_per_second"`
		TimeoutSecs   int     `toml:"timeout_seconds"`
	} `toml:"embedding"`

	VectorStore struct {
		VectorStoreSettings
		TimeoutSecs int `toml:"timeout_seconds"`
	} `toml:"vector_store"`

	Sessions struct {
		SessionSettings
		WindowHours int `toml:"window_hours"`
		MaxMessages int `toml:"max_messages"`
	} `toml:"sessions"`

	Resilience struct {
		MaxRetries          int `toml:"max_retries"`
		RetryInitialDelayMS int `toml:"retry_initial_delay_ms"`
		RetryMaxDelayMS     int `toml:"retry_max_delay_ms"`
		BreakerFailures     int `toml:"breaker_failures"`
		BreakerCooldownSecs int `toml:"breaker_cooldown_seconds"`
	} `toml:"resilience"`
}

// Load reads the config file at path, applies defaults, environment
// overrides and validation. A missing file yields pure defaults; any
// other read failure is an error.
func Load(path string) (*Settings, error) {
	var schema fileSchema

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	settings := fromSchema(schema)
	applyEnv(settings)

	if err := settings.Core.Validate(); err != nil {
		return nil, err
	}
	if err := validateBackends(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// fromSchema merges the parsed file over the built-in defaults.
func fromSchema(s fileSchema) *Settings {
	core := domain.DefaultConfig()

	setStr(&core.ContentRoot, s.ContentRoot)
	setInt(&core.ChunkMinTokens, s.Chunking.MinTokens)
	setInt(&core.ChunkMaxTokens, s.Chunking.MaxTokens)
	if s.Chunking.Overlap > 0 {
		core.ChunkOverlap = s.Chunking.Overlap
	}
	if s.Ingestion.MaxFileSize > 0 {
		core.MaxFileSize = s.Ingestion.MaxFileSize
	}
	setInt(&core.IngestConcurrency, s.Ingestion.Concurrency)
	setInt(&core.TopK, s.Retrieval.TopK)
	if s.Retrieval.SimilarityThreshold > 0 {
		core.SimilarityThreshold = s.Retrieval.SimilarityThreshold
	}
	setInt(&core.ContextBudgetTokens, s.Retrieval.ContextBudgetTokens)
	setInt(&core.MaxAnswerTokens, s.Generation.MaxTokens)
	if s.Generation.Temperature > 0 {
		core.Temperature = s.Generation.Temperature
	}
	setInt(&core.SessionMaxMessages, s.Sessions.MaxMessages)
	if s.Sessions.WindowHours > 0 {
		core.SessionWindow = time.Duration(s.Sessions.WindowHours) * time.Hour
	}
	if s.Embedding.TimeoutSecs > 0 {
		core.EmbedTimeout = time.Duration(s.Embedding.TimeoutSecs) * time.Second
	}
	if s.VectorStore.TimeoutSecs > 0 {
		core.VectorTimeout = time.Duration(s.VectorStore.TimeoutSecs) * time.Second
	}
	if s.Generation.TimeoutSecs > 0 {
		core.GenerationTimeout = time.Duration(s.Generation.TimeoutSecs) * time.Second
	}
	if s.Resilience.MaxRetries > 0 {
		core.MaxRetries = s.Resilience.MaxRetries
	}
	if s.Resilience.RetryInitialDelayMS > 0 {
		core.RetryInitialDelay = time.Duration(s.Resilience.RetryInitialDelayMS) * time.Millisecond
	}
	if s.Resilience.RetryMaxDelayMS > 0 {
		core.RetryMaxDelay = time.Duration(s.Resilience.RetryMaxDelayMS) * time.Millisecond
	}
	setInt(&core.BreakerFailures, s.Resilience.BreakerFailures)
	if s.Resilience.BreakerCooldownSecs > 0 {
		core.BreakerCooldown = time.Duration(s.Resilience.BreakerCooldownSecs) * time.Second
	}
	if s.Embedding.RatePerSecond > 0 {
		core.EmbedRatePerSecond = s.Embedding.RatePerSecond
	}

	settings := &Settings{
		Core:        core,
		Embedding:   s.Embedding.ProviderSettings,
		Generation:  s.Generation.ProviderSettings,
		VectorStore: s.VectorStore.VectorStoreSettings,
		Sessions:    s.Sessions.SessionSettings,
	}
	if settings.Embedding.Provider == "" {
		settings.Embedding.Provider = ProviderOpenAI
	}
	if settings.Generation.Provider == "" {
		settings.Generation.Provider = ProviderOpenAI
	}
	if settings.VectorStore.Backend == "" {
		settings.VectorStore.Backend = BackendQdrant
	}
	if settings.Sessions.Backend == "" {
		settings.Sessions.Backend = BackendMemory
	}
	return settings
}

// applyEnv overlays environment variables onto the settings. Environment
// wins over the file.
func applyEnv(s *Settings) {
	s.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	switch s.Generation.Provider {
	case ProviderAnthropic:
		s.Generation.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	default:
		s.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	s.VectorStore.APIKey = os.Getenv("QDRANT_API_KEY")

	if v := os.Getenv("BOOKCHAT_CONTENT_ROOT"); v != "" {
		s.Core.ContentRoot = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		s.VectorStore.URL = v
	}
	if v := os.Getenv("BOOKCHAT_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Core.SimilarityThreshold = f
		}
	}
}

// validateBackends rejects unknown provider and backend names early.
func validateBackends(s *Settings) error {
	switch s.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, s.Embedding.Provider)
	}
	switch s.Generation.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown generation provider %q", domain.ErrInvalidInput, s.Generation.Provider)
	}
	switch s.VectorStore.Backend {
	case BackendQdrant, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown vector store backend %q", domain.ErrInvalidInput, s.VectorStore.Backend)
	}
	switch s.Sessions.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown session backend %q", domain.ErrInvalidInput, s.Sessions.Backend)
	}
	return nil
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
