package domain

import "fmt"

// SelectionType identifies the kind of content scope applied to a query.
type SelectionType string

// Selection types.
const (
	SelectionNone      SelectionType = "none"
	SelectionChapter   SelectionType = "chapter"
	SelectionPageRange SelectionType = "page_range"
)

// ContentSelection is a caller-supplied scope restriction narrowing
// retrieval to a chapter or a page range. Invalid combinations are a
// validation error, never silently coerced.
type ContentSelection struct {
	// Type determines which fields are required.
	Type SelectionType

	// Chapter is required for SelectionChapter.
	Chapter string

	// PageStart and PageEnd are required for SelectionPageRange,
	// with PageStart <= PageEnd.
	PageStart int
	PageEnd   int
}

// IsZero reports whether the selection imposes no restriction.
func (s *ContentSelection) IsZero() bool {
	return s == nil || s.Type == "" || s.Type == SelectionNone
}

// Validate checks the field combination required by the selection type.
func (s *ContentSelection) Validate() error {
	if s == nil {
		return nil
	}
	switch s.Type {
	case "", SelectionNone:
		return nil
	case SelectionChapter:
		if s.Chapter == "" {
			return fmt.Errorf("%w: chapter selection requires a chapter name", ErrInvalidInput)
		}
		return nil
	case SelectionPageRange:
		if s.PageStart <= 0 || s.PageEnd <= 0 {
			return fmt.Errorf("%w: page range selection requires positive page bounds", ErrInvalidInput)
		}
		if s.PageStart > s.PageEnd {
			return fmt.Errorf("%w: page range start %d exceeds end %d", ErrInvalidInput, s.PageStart, s.PageEnd)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown selection type %q", ErrInvalidInput, s.Type)
	}
}
