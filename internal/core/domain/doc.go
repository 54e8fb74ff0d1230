// Package domain defines the core business entities for Bookchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source file ingested into the corpus
//   - Chunk: The unit of embedding and retrieval
//   - IngestionReport: The outcome of one ingestion run
//   - Session / Message: A conversation and its append-only history
//   - ContentSelection: A caller-supplied retrieval scope
//   - Source: A citation into retrieved context
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
