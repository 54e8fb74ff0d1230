package domain

// Source is one cited chunk in an answer. Produced only by the generation
// orchestrator.
type Source struct {
	// SourceID is the cited document's stable identifier.
	SourceID string

	// ChunkIndex is the cited chunk's position within the document.
	ChunkIndex int

	// Score is the relevance score of the cited chunk, in [0,1].
	Score float64

	// Excerpt is a short extract of the cited text.
	Excerpt string
}

// Answer is the caller-facing result of one question.
//
// An answer is book-grounded only if it contains at least one valid
// citation drawn from the sources supplied for that turn; otherwise it
// always carries a disclaimer.
type Answer struct {
	// Text is the generated answer with validated citation markers.
	Text string

	// Sources are the citations actually used, in order of appearance.
	Sources []Source

	// Disclaimer is set when the answer is not grounded in the corpus,
	// or when the service degraded.
	Disclaimer string

	// Grounded reports whether the answer cites supplied context.
	Grounded bool
}
