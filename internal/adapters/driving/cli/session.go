package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

var sessionSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove sessions past the inactivity window",
	Args:  cobra.NoArgs,
	RunE:  runSessionSweep,
}

func init() {
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionSweepCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if err := chatService.DeleteSession(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	cmd.Printf("Session %s deleted.\n", args[0])
	return nil
}

func runSessionSweep(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	removed, err := chatService.SweepExpired(context.Background())
	if err != nil {
		return fmt.Errorf("failed to sweep sessions: %w", err)
	}
	cmd.Printf("Removed %d expired sessions.\n", removed)
	return nil
}
