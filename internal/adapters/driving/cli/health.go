package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

// healthCheckTimeout bounds each provider ping.
const healthCheckTimeout = 10 * time.Second

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the configured providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if embeddingProvider == nil || generationProvider == nil {
		return errors.New("providers not configured")
	}

	ok := true
	ok = pingProvider(cmd, "embedding", embeddingProvider.ModelName(), embeddingProvider.Ping) && ok
	ok = pingProvider(cmd, "generation", generationProvider.ModelName(), generationProvider.Ping) && ok
	if !ok {
		return errors.New("one or more providers are unreachable")
	}
	return nil
}

func pingProvider(cmd *cobra.Command, role, model string, ping func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		cmd.Printf("%s (%s): unreachable: %v\n", role, model, err)
		return false
	}
	cmd.Printf("%s (%s): ok\n", role, model)
	return true
}
