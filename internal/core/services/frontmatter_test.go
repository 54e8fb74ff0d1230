package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantMeta fileMeta
		wantBody string
	}{
		{
			name:     "no front matter",
			content:  "plain body text",
			wantMeta: fileMeta{},
			wantBody: "plain body text",
		},
		{
			name:     "chapter and page range",
			content:  "---\nchapter: The Storm\npages: 40-52\n---\nbody here",
			wantMeta: fileMeta{Chapter: "The Storm", PageStart: 40, PageEnd: 52},
			wantBody: "body here",
		},
		{
			name:     "single page",
			content:  "---\npage: 7\n---\nbody",
			wantMeta: fileMeta{PageStart: 7, PageEnd: 7},
			wantBody: "body",
		},
		{
			name:     "quoted chapter",
			content:  "---\nchapter: \"Chapter One\"\n---\nbody",
			wantMeta: fileMeta{Chapter: "Chapter One"},
			wantBody: "body",
		},
		{
			name:     "unknown keys ignored",
			content:  "---\nauthor: someone\nchapter: Intro\n---\nbody",
			wantMeta: fileMeta{Chapter: "Intro"},
			wantBody: "body",
		},
		{
			name:     "unterminated block is body",
			content:  "---\nchapter: Lost\nno closing fence",
			wantMeta: fileMeta{},
			wantBody: "---\nchapter: Lost\nno closing fence",
		},
		{
			name:     "invalid page range ignored",
			content:  "---\npages: 50-10\n---\nbody",
			wantMeta: fileMeta{},
			wantBody: "body",
		},
		{
			name:     "horizontal rule later in body untouched",
			content:  "intro paragraph\n---\nmore text",
			wantMeta: fileMeta{},
			wantBody: "intro paragraph\n---\nmore text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body := parseFrontMatter(tt.content)
			assert.Equal(t, tt.wantMeta, meta)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestParsePageRange(t *testing.T) {
	start, end, ok := parsePageRange("12-18")
	assert.True(t, ok)
	assert.Equal(t, 12, start)
	assert.Equal(t, 18, end)

	start, end, ok = parsePageRange("5")
	assert.True(t, ok)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)

	_, _, ok = parsePageRange("abc")
	assert.False(t, ok)
	_, _, ok = parsePageRange("0")
	assert.False(t, ok)
	_, _, ok = parsePageRange("9-3")
	assert.False(t, ok)
}
