package services

import (
	"strconv"
	"strings"
)

// fileMeta is locational metadata parsed from a file's front matter.
type fileMeta struct {
	Chapter   string
	PageStart int
	PageEnd   int
}

// parseFrontMatter extracts a minimal front matter block from the top of
// a document and returns the remaining body. Only the keys the pipeline
// stores are read: "chapter" and "pages" ("N-M" or a single page number).
// Anything unrecognised is ignored; a malformed block is treated as body.
func parseFrontMatter(content string) (fileMeta, string) {
	var meta fileMeta

	trimmed := strings.TrimPrefix(content, "\ufeff")
	trimmed = strings.TrimLeft(trimmed, "\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return meta, content
	}

	rest := trimmed[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, content
	}
	block := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimLeft(body, "-")
	body = strings.TrimLeft(body, "\r\n")

	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.ToLower(key))
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch key {
		case "chapter":
			meta.Chapter = value
		case "pages", "page":
			start, endPage, ok := parsePageRange(value)
			if ok {
				meta.PageStart = start
				meta.PageEnd = endPage
			}
		}
	}
	return meta, body
}

// parsePageRange parses "12-18" or "12" into inclusive page bounds.
func parsePageRange(value string) (int, int, bool) {
	if from, to, ok := strings.Cut(value, "-"); ok {
		start, err1 := strconv.Atoi(strings.TrimSpace(from))
		end, err2 := strconv.Atoi(strings.TrimSpace(to))
		if err1 != nil || err2 != nil || start <= 0 || end < start {
			return 0, 0, false
		}
		return start, end, true
	}
	page, err := strconv.Atoi(value)
	if err != nil || page <= 0 {
		return 0, 0, false
	}
	return page, page, true
}
