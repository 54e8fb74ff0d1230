// Package cli implements the bookchat command line interface.
//
// Commands talk to the core services through the driving ports. Service
// wiring happens once in the root command's PersistentPreRunE, driven by
// the loaded configuration; tests swap the package-level service variables
// directly.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookchat/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/bookchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/bookchat/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/bookchat/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/bookchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/bookchat/internal/adapters/driven/llm/openai"
	storagememory "github.com/custodia-labs/bookchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookchat/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/custodia-labs/bookchat/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/bookchat/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/bookchat/internal/chunker"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
	"github.com/custodia-labs/bookchat/internal/core/ports/driving"
	"github.com/custodia-labs/bookchat/internal/core/services"
	"github.com/custodia-labs/bookchat/internal/logger"
	"github.com/custodia-labs/bookchat/internal/resilience"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Wired in initServices; tests replace
// them directly.
var (
	chatService      driving.ChatService
	ingestionService driving.IngestionService
)

// Provider handles kept for the health command, which pings them
// directly instead of going through a service.
var (
	embeddingProvider  driven.EmbeddingProvider
	generationProvider driven.GenerationProvider
)

// settings holds the loaded configuration for commands that need more
// than the services (the watcher needs the content root).
var settings *file.Settings

// closeStores releases storage handles on exit. Nil when nothing to close.
var closeStores func() error

var (
	configPath  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "bookchat",
	Short: "Ask questions about your books",
	Long: `Bookchat ingests book content into a vector index and answers
questions about it with citations back to the source chunks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if closeStores != nil {
			closeStores()
		}
	}()
	return rootCmd.Execute()
}

// defaultConfigPath is ~/.bookchat/config.toml, or empty when the home
// directory cannot be resolved (pure defaults apply).
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bookchat", "config.toml")
}

// initServices loads the configuration and wires adapters into services.
// Already-wired services (tests, repeated PreRun) are left alone.
func initServices() error {
	if chatService != nil && ingestionService != nil {
		return nil
	}

	loaded, err := file.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	settings = loaded

	embedder, err := buildEmbedder(loaded)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(loaded)
	if err != nil {
		return err
	}
	vectors, err := buildVectorStore(loaded)
	if err != nil {
		return err
	}
	sessionStore, reportStore, err := buildStorage(loaded)
	if err != nil {
		return err
	}

	chunks, err := chunker.New(chunker.Config{
		MinTokens: loaded.Core.ChunkMinTokens,
		MaxTokens: loaded.Core.ChunkMaxTokens,
		Overlap:   loaded.Core.ChunkOverlap,
	})
	if err != nil {
		return err
	}

	sessions := services.NewSessionManager(sessionStore, loaded.Core)
	retriever := services.NewRetrievalEngine(embedder, vectors, loaded.Core)
	assembler := services.NewContextAssembler(loaded.Core)
	answerer := services.NewGenerationOrchestrator(generator, loaded.Core)

	chatService = services.NewChatService(sessions, retriever, assembler, answerer)
	ingestionService = services.NewIngestionOrchestrator(embedder, vectors, reportStore, chunks, loaded.Core)
	embeddingProvider = embedder
	generationProvider = generator
	return nil
}

func buildEmbedder(s *file.Settings) (driven.EmbeddingProvider, error) {
	var provider driven.EmbeddingProvider
	switch s.Embedding.Provider {
	case file.ProviderOllama:
		provider = ollamaembed.NewProvider(ollamaembed.Config{
			BaseURL:       s.Embedding.BaseURL,
			Model:         s.Embedding.Model,
			Dimensions:    s.Embedding.Dimensions,
			Timeout:       s.Core.EmbedTimeout,
			RatePerSecond: s.Core.EmbedRatePerSecond,
		})
	default:
		p, err := openaiembed.NewProvider(openaiembed.Config{
			APIKey:        s.Embedding.APIKey,
			BaseURL:       s.Embedding.BaseURL,
			Model:         s.Embedding.Model,
			Dimensions:    s.Embedding.Dimensions,
			Timeout:       s.Core.EmbedTimeout,
			RatePerSecond: s.Core.EmbedRatePerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring embedding provider: %w", err)
		}
		provider = p
	}
	return resilience.NewEmbedding(provider, s.Core), nil
}

func buildGenerator(s *file.Settings) (driven.GenerationProvider, error) {
	var provider driven.GenerationProvider
	switch s.Generation.Provider {
	case file.ProviderAnthropic:
		p, err := anthropic.NewProvider(anthropic.Config{
			APIKey:  s.Generation.APIKey,
			BaseURL: s.Generation.BaseURL,
			Model:   s.Generation.Model,
			Timeout: s.Core.GenerationTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring generation provider: %w", err)
		}
		provider = p
	case file.ProviderOllama:
		provider = ollamallm.NewProvider(ollamallm.Config{
			BaseURL: s.Generation.BaseURL,
			Model:   s.Generation.Model,
			Timeout: s.Core.GenerationTimeout,
		})
	default:
		p, err := openaillm.NewProvider(openaillm.Config{
			APIKey:  s.Generation.APIKey,
			BaseURL: s.Generation.BaseURL,
			Model:   s.Generation.Model,
			Timeout: s.Core.GenerationTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring generation provider: %w", err)
		}
		provider = p
	}
	return resilience.NewGeneration(provider, s.Core), nil
}

func buildVectorStore(s *file.Settings) (driven.VectorStore, error) {
	var store driven.VectorStore
	switch s.VectorStore.Backend {
	case file.BackendMemory:
		store = vectormemory.NewStore()
	default:
		store = qdrant.NewStore(qdrant.Config{
			BaseURL:    s.VectorStore.URL,
			APIKey:     s.VectorStore.APIKey,
			Collection: s.VectorStore.Collection,
			Timeout:    s.Core.VectorTimeout,
		})
	}
	return resilience.NewVectorStore(store, s.Core), nil
}

func buildStorage(s *file.Settings) (driven.SessionStore, driven.ReportStore, error) {
	if s.Sessions.Backend == file.BackendSQLite {
		store, err := sqlite.NewStore(s.Sessions.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session database: %w", err)
		}
		closeStores = store.Close
		return store.SessionStore(), store.ReportStore(), nil
	}
	return storagememory.NewSessionStore(), storagememory.NewReportStore(), nil
}
