package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

var (
	askChapter string
	askPages   string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question about the ingested books",
	Long: `Answers a single question against the ingested content and prints
the answer with its citations. Use --chapter or --pages to restrict
retrieval to part of the book.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askChapter, "chapter", "", "restrict retrieval to a chapter")
	askCmd.Flags().StringVar(&askPages, "pages", "", "restrict retrieval to a page range, e.g. 40-52")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	selection, err := parseSelection(askChapter, askPages)
	if err != nil {
		return err
	}

	ctx := context.Background()
	session, err := chatService.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer chatService.DeleteSession(ctx, session.ID)

	answer, err := chatService.Send(ctx, session.ID, args[0], selection)
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	printAnswer(cmd, answer)
	return nil
}

// parseSelection builds a content selection from the chapter and pages
// flags. Both at once is an error; the core never coerces ambiguity.
func parseSelection(chapter, pages string) (*domain.ContentSelection, error) {
	if chapter != "" && pages != "" {
		return nil, fmt.Errorf("%w: --chapter and --pages are mutually exclusive", domain.ErrInvalidInput)
	}
	if chapter != "" {
		return &domain.ContentSelection{
			Type:    domain.SelectionChapter,
			Chapter: chapter,
		}, nil
	}
	if pages != "" {
		start, end, err := parsePages(pages)
		if err != nil {
			return nil, err
		}
		return &domain.ContentSelection{
			Type:      domain.SelectionPageRange,
			PageStart: start,
			PageEnd:   end,
		}, nil
	}
	return nil, nil
}

// parsePages accepts "N-M" or a single page "N".
func parsePages(s string) (int, int, error) {
	first, second, ranged := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid page range %q", domain.ErrInvalidInput, s)
	}
	end := start
	if ranged {
		end, err = strconv.Atoi(strings.TrimSpace(second))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: invalid page range %q", domain.ErrInvalidInput, s)
		}
	}
	return start, end, nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if answer.Disclaimer != "" {
		cmd.Printf("\nNote: %s\n", answer.Disclaimer)
	}

	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, src := range answer.Sources {
			cmd.Printf("  [%s:%d] (%.2f) %s\n", src.SourceID, src.ChunkIndex, src.Score, src.Excerpt)
		}
	}
}
