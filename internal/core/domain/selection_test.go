package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContentSelection_Validate tests the type/field combinations
func TestContentSelection_Validate(t *testing.T) {
	tests := []struct {
		name      string
		selection *ContentSelection
		wantErr   bool
	}{
		{
			name:      "nil selection is valid",
			selection: nil,
		},
		{
			name:      "none type is valid",
			selection: &ContentSelection{Type: SelectionNone},
		},
		{
			name:      "empty type is valid",
			selection: &ContentSelection{},
		},
		{
			name:      "chapter with name",
			selection: &ContentSelection{Type: SelectionChapter, Chapter: "Intro"},
		},
		{
			name:      "chapter without name",
			selection: &ContentSelection{Type: SelectionChapter},
			wantErr:   true,
		},
		{
			name:      "page range valid",
			selection: &ContentSelection{Type: SelectionPageRange, PageStart: 3, PageEnd: 10},
		},
		{
			name:      "page range single page",
			selection: &ContentSelection{Type: SelectionPageRange, PageStart: 7, PageEnd: 7},
		},
		{
			name:      "page range inverted",
			selection: &ContentSelection{Type: SelectionPageRange, PageStart: 10, PageEnd: 3},
			wantErr:   true,
		},
		{
			name:      "page range missing bounds",
			selection: &ContentSelection{Type: SelectionPageRange},
			wantErr:   true,
		},
		{
			name:      "unknown type",
			selection: &ContentSelection{Type: "paragraph"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.selection.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestContentSelection_IsZero tests scope detection
func TestContentSelection_IsZero(t *testing.T) {
	var nilSel *ContentSelection
	assert.True(t, nilSel.IsZero())
	assert.True(t, (&ContentSelection{}).IsZero())
	assert.True(t, (&ContentSelection{Type: SelectionNone}).IsZero())
	assert.False(t, (&ContentSelection{Type: SelectionChapter, Chapter: "Intro"}).IsZero())
}
