package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCmd_Use(t *testing.T) {
	assert.Equal(t, "session", sessionCmd.Use)
}

func TestSessionCmd_HasSubcommands(t *testing.T) {
	commands := sessionCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "delete")
	assert.Contains(t, commandNames, "sweep")
}

func TestSessionDeleteCmd_DeletesSession(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"session", "delete", "sess-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"sess-1"}, chat.deleted)
	assert.Contains(t, buf.String(), "Session sess-1 deleted.")
}

func TestSessionSweepCmd_ReportsCount(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()
	chat.swept = 3

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"session", "sweep"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Removed 3 expired sessions.")
}
