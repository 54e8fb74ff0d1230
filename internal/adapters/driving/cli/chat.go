package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	Long: `Opens an interactive session against the ingested books. Each turn
retrieves relevant chunks and answers with citations.

Commands inside the session:
  /history   show the conversation so far
  /new       start a fresh session
  /quit      exit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	ctx := context.Background()
	session, err := chatService.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	cmd.Printf("Session %s started. Type /quit to exit.\n\n", session.ID)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil

		case "/history":
			if err := printHistory(ctx, cmd, session.ID); err != nil {
				cmd.PrintErrf("Error: %v\n", err)
			}
			continue

		case "/new":
			session, err = chatService.StartSession(ctx)
			if err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}
			cmd.Printf("Session %s started.\n", session.ID)
			continue
		}

		answer, err := chatService.Send(ctx, session.ID, line, nil)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				cmd.Println("Session expired. Use /new to start another.")
			case errors.Is(err, domain.ErrMessageLimit):
				cmd.Println("Session is full. Use /new to start another.")
			default:
				cmd.PrintErrf("Error: %v\n", err)
			}
			continue
		}

		cmd.Println()
		printAnswer(cmd, answer)
		cmd.Println()
	}
	return scanner.Err()
}

func printHistory(ctx context.Context, cmd *cobra.Command, sessionID string) error {
	messages, err := chatService.History(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		cmd.Println("No messages yet.")
		return nil
	}
	for _, msg := range messages {
		cmd.Printf("[%s] %s\n", msg.Role, msg.Content)
	}
	return nil
}
