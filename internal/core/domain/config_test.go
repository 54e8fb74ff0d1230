package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig_Valid ensures the defaults pass validation
func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.35, cfg.SimilarityThreshold, 1e-9)
	assert.Equal(t, 24*time.Hour, cfg.SessionWindow)
}

// TestConfig_Validate tests range checks
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"chunk min below 50", func(c *Config) { c.ChunkMinTokens = 10 }},
		{"chunk max above 2000", func(c *Config) { c.ChunkMaxTokens = 5000 }},
		{"chunk min >= max", func(c *Config) { c.ChunkMinTokens = 500; c.ChunkMaxTokens = 500 }},
		{"overlap >= min chunk size", func(c *Config) { c.ChunkOverlap = 100 }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"threshold above 1", func(c *Config) { c.SimilarityThreshold = 1.5 }},
		{"threshold below 0", func(c *Config) { c.SimilarityThreshold = -0.1 }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"zero context budget", func(c *Config) { c.ContextBudgetTokens = 0 }},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }},
		{"zero concurrency", func(c *Config) { c.IngestConcurrency = 0 }},
		{"zero session window", func(c *Config) { c.SessionWindow = 0 }},
		{"zero message limit", func(c *Config) { c.SessionMaxMessages = 0 }},
		{"zero embed timeout", func(c *Config) { c.EmbedTimeout = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero breaker failures", func(c *Config) { c.BreakerFailures = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
