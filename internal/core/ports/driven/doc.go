// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// The core treats the external providers (embedding, vector index,
// generation) and stores as replaceable collaborators. Each is received
// through constructor injection so tests can substitute doubles.
package driven
