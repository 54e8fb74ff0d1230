// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline services cover ingestion, retrieval, context assembly,
// answer generation and session management. All collaborators are
// injected through constructors.
package services
