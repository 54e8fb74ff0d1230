package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driving"
	"github.com/custodia-labs/bookchat/internal/watcher"
)

var (
	ingestRecursive bool
	ingestWatch     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest book content into the index",
	Long: `Scans a file or directory under the content root, splits supported
files into chunks, embeds them and stores them in the vector index.
Re-ingesting unchanged content is a no-op.

With no path the whole content root is ingested.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var ingestStatusCmd = &cobra.Command{
	Use:   "status [report-id]",
	Short: "Show ingestion run status",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestStatus,
}

var ingestCancelCmd = &cobra.Command{
	Use:   "cancel [report-id]",
	Short: "Cancel an in-flight ingestion run",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestCancel,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", true, "descend into subdirectories")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching for changes and re-ingest")

	ingestCmd.AddCommand(ingestStatusCmd)
	ingestCmd.AddCommand(ingestCancelCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	ctx := context.Background()
	reportID, err := ingestionService.Start(ctx, driving.SourceDescriptor{
		Path:      path,
		Recursive: ingestRecursive,
	})
	if err != nil {
		return fmt.Errorf("failed to start ingestion: %w", err)
	}

	cmd.Printf("Ingestion run started: %s\n", reportID)
	report, err := awaitReport(ctx, reportID)
	if err != nil {
		return err
	}
	printReport(cmd, report)

	if report.Status == domain.StatusFailed {
		return fmt.Errorf("ingestion run %s failed", reportID)
	}
	if ingestWatch {
		return watchContent(cmd)
	}
	return nil
}

// awaitReport polls until the run reaches a terminal state.
func awaitReport(ctx context.Context, reportID string) (*domain.IngestionReport, error) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		report, err := ingestionService.Status(ctx, reportID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll run status: %w", err)
		}
		if report.Terminal() {
			return report, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// watchContent blocks re-ingesting the content root on change until
// interrupted.
func watchContent(cmd *cobra.Command) error {
	if settings == nil {
		return errors.New("configuration not loaded")
	}

	w, err := watcher.New(ingestionService, settings.Core.ContentRoot, watcher.DefaultDebounce)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", settings.Core.ContentRoot)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runIngestStatus(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	report, err := ingestionService.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func runIngestCancel(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	if err := ingestionService.Cancel(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}
	cmd.Printf("Cancellation requested for run %s.\n", args[0])
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestionReport) {
	cmd.Printf("\nRun %s: %s\n\n", report.ID, report.Status)
	cmd.Printf("  Source:       %s\n", report.SourcePath)
	cmd.Printf("  Files:        %d total, %d processed, %d skipped, %d failed\n",
		report.TotalFiles, report.ProcessedFiles, report.SkippedFiles, report.FailedFiles)
	cmd.Printf("  Chunks:       %d created, %d deduplicated\n",
		report.ChunksCreated, report.ChunksDeduplicated)
	if d := report.Duration(); d > 0 {
		cmd.Printf("  Duration:     %s\n", d.Round(time.Millisecond))
	}

	if len(report.Errors) > 0 {
		cmd.Println("\n  Errors:")
		for _, e := range report.Errors {
			cmd.Printf("    %s (%s): %s\n", e.FilePath, e.Type, e.Message)
		}
	}
}
