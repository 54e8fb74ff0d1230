package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_PrintsAnswerWithSources(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "What happened to the mast?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "What happened to the mast?", chat.lastQuestion)
	assert.Contains(t, buf.String(), "The mast broke during the night")
	assert.Contains(t, buf.String(), "Sources:")
	assert.Contains(t, buf.String(), "[voyage-ch3:0]")
}

func TestAskCmd_OneShotSessionIsDeleted(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"ask", "question"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, []string{"sess-test"}, chat.deleted)
}

func TestAskCmd_ChapterFlagBuildsSelection(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"ask", "question", "--chapter", "The Storm"})
	defer func() {
		rootCmd.SetArgs(nil)
		askChapter = ""
	}()

	require.NoError(t, rootCmd.Execute())
	require.NotNil(t, chat.lastSelection)
	assert.Equal(t, domain.SelectionChapter, chat.lastSelection.Type)
	assert.Equal(t, "The Storm", chat.lastSelection.Chapter)
}

func TestAskCmd_PagesFlagBuildsSelection(t *testing.T) {
	chat, _, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"ask", "question", "--pages", "40-52"})
	defer func() {
		rootCmd.SetArgs(nil)
		askPages = ""
	}()

	require.NoError(t, rootCmd.Execute())
	require.NotNil(t, chat.lastSelection)
	assert.Equal(t, domain.SelectionPageRange, chat.lastSelection.Type)
	assert.Equal(t, 40, chat.lastSelection.PageStart)
	assert.Equal(t, 52, chat.lastSelection.PageEnd)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		chapter string
		pages   string
		want    *domain.ContentSelection
		wantErr bool
	}{
		{name: "no restriction", want: nil},
		{
			name:    "chapter",
			chapter: "The Storm",
			want:    &domain.ContentSelection{Type: domain.SelectionChapter, Chapter: "The Storm"},
		},
		{
			name:  "page range",
			pages: "12-18",
			want:  &domain.ContentSelection{Type: domain.SelectionPageRange, PageStart: 12, PageEnd: 18},
		},
		{
			name:  "single page",
			pages: "7",
			want:  &domain.ContentSelection{Type: domain.SelectionPageRange, PageStart: 7, PageEnd: 7},
		},
		{name: "both flags", chapter: "One", pages: "1-2", wantErr: true},
		{name: "malformed pages", pages: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSelection(tt.chapter, tt.pages)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
